package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/util"
)

// StatusStore is the persistence surface the status workflow consumes.
type StatusStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, from, to string) error
	GetQuoteByID(ctx context.Context, id int64) (*models.Quote, error)
	UpdateQuoteStatus(ctx context.Context, id int64, status string) error
}

// orderTransitions is the allowed transition graph. Terminal states
// (fulfilled, cancelled) have no outgoing edges.
var orderTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusFulfilled, models.OrderStatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
// A same-status move is a permitted no-op.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusService validates administrative status transitions: a strict graph
// for orders, and a loose any-to-any label for quotes. The two must never
// be conflated.
type StatusService struct {
	store     StatusStore
	publisher EventPublisher
	logger    *zap.Logger
}

// NewStatusService creates a new status workflow service
func NewStatusService(store StatusStore, publisher EventPublisher) *StatusService {
	return &StatusService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// TransitionOrder moves an order to target along the allowed graph and
// returns the updated record. Transitioning to the current status is an
// idempotent no-op.
func (s *StatusService) TransitionOrder(ctx context.Context, orderID int64, target string) (*models.Order, error) {
	switch target {
	case models.OrderStatusPending, models.OrderStatusPaid,
		models.OrderStatusFulfilled, models.OrderStatusCancelled:
	default:
		return nil, models.Validationf("unknown order status: %s", target)
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == target {
		return order, nil
	}

	if !CanTransition(order.Status, target) {
		return nil, models.Transitionf("cannot transition order %d from %s to %s",
			orderID, order.Status, target)
	}

	// Guarded write: if the order moved between the read above and this
	// statement, the store rejects the transition instead of stacking it.
	if err := s.store.UpdateOrderStatus(ctx, orderID, order.Status, target); err != nil {
		return nil, err
	}

	from := order.Status
	order.Status = target
	order.UpdatedAt = time.Now()

	switch target {
	case models.OrderStatusPaid:
		util.OrdersPaidTotal.Inc()
	case models.OrderStatusFulfilled:
		util.OrdersFulfilledTotal.Inc()
	case models.OrderStatusCancelled:
		util.OrdersCancelledTotal.Inc()
	}

	s.logger.Info("Order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", from),
		zap.String("to", target))

	if s.publisher != nil {
		event := &models.OrderStatusChangedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderStatusChanged,
				Timestamp: time.Now(),
			},
			OrderID:    orderID,
			FromStatus: from,
			ToStatus:   target,
		}
		if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}

	return order, nil
}

// TransitionQuote relabels a quote. Any known label is reachable from any
// other; this is lead tracking, not a financial state machine.
func (s *StatusService) TransitionQuote(ctx context.Context, quoteID int64, target string) (*models.Quote, error) {
	if !models.ValidQuoteStatus(target) {
		return nil, models.Validationf("unknown quote status: %s", target)
	}

	quote, err := s.store.GetQuoteByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if quote.Status == target {
		return quote, nil
	}

	if err := s.store.UpdateQuoteStatus(ctx, quoteID, target); err != nil {
		return nil, err
	}

	quote.Status = target
	quote.UpdatedAt = time.Now()
	return quote, nil
}
