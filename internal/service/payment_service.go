package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/payment"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/util"
)

// PaymentStore is the persistence surface payment orchestration consumes.
type PaymentStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByPaymentRef(ctx context.Context, ref string) (*models.Order, error)
	SetOrderPaymentRef(ctx context.Context, orderID int64, ref string) error
	MarkOrderPaid(ctx context.Context, orderID int64, ref string) error
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// PaymentService mediates between the order ledger and the external
// processor: it begins hosted payment sessions and applies asynchronous
// confirmations. Orders stay pending until a verified confirmation lands.
type PaymentService struct {
	store         PaymentStore
	gateway       payment.Gateway
	publisher     EventPublisher
	webhookSecret string
	successURL    string
	cancelURL     string
	logger        *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	store PaymentStore,
	gateway payment.Gateway,
	publisher EventPublisher,
	webhookSecret, successURL, cancelURL string,
) *PaymentService {
	return &PaymentService{
		store:         store,
		gateway:       gateway,
		publisher:     publisher,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
		logger:        util.GetLogger(),
	}
}

// BeginPayment opens a hosted payment session for a pending order and
// returns the redirect URL. The order remains pending; a processor failure
// leaves it untouched and safely retryable.
func (ps *PaymentService) BeginPayment(ctx context.Context, orderID int64, successURL, cancelURL string) (string, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.BeginPayment")
	defer span.End()

	order, err := ps.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.Status != models.OrderStatusPending {
		return "", models.Validationf("order %d is not awaiting payment (status %s)", orderID, order.Status)
	}

	if successURL == "" {
		successURL = ps.successURL
	}
	if cancelURL == "" {
		cancelURL = ps.cancelURL
	}

	start := time.Now()
	session, err := ps.gateway.CreateSession(ctx, payment.SessionRequest{
		OrderID:    order.ID,
		Amount:     order.TotalAmount,
		Currency:   "USD",
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	util.PaymentSessionLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		ps.logger.Warn("Payment session creation failed",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return "", err
	}

	if err := ps.store.SetOrderPaymentRef(ctx, order.ID, session.Reference); err != nil {
		return "", models.PersistenceErr("failed to record payment reference", err)
	}

	util.PaymentSessionsTotal.Inc()
	ps.logger.Info("Payment session started",
		zap.Int64("order_id", order.ID),
		zap.String("payment_ref", session.Reference))

	return session.RedirectURL, nil
}

// HandleConfirmation applies a signed webhook event. Signature failure
// rejects without touching any order; an event that matches no order is
// logged and ignored; a replayed or already-applied event is a no-op.
func (ps *PaymentService) HandleConfirmation(ctx context.Context, body []byte, signature string) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandleConfirmation")
	defer span.End()

	event, err := payment.ParseEvent(ps.webhookSecret, body, signature)
	if err != nil {
		util.PaymentWebhooksTotal.WithLabelValues("rejected").Inc()
		return err
	}

	processed, err := ps.store.IsEventProcessed(ctx, event.ID)
	if err != nil {
		return models.PersistenceErr("failed to check event ledger", err)
	}
	if processed {
		util.PaymentWebhooksTotal.WithLabelValues("duplicate").Inc()
		ps.logger.Info("Webhook event already processed", zap.String("event_id", event.ID))
		return nil
	}

	if event.Type != payment.EventPaymentSucceeded {
		// Failed payments leave the order pending so the customer can retry.
		util.PaymentWebhooksTotal.WithLabelValues("ignored").Inc()
		ps.logger.Info("Ignoring non-success payment event",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type))
		return ps.store.MarkEventProcessed(ctx, event.ID, event.Type)
	}

	order, err := ps.resolveOrder(ctx, event)
	if err != nil {
		return err
	}
	if order == nil {
		// Never fabricate an order for an unknown confirmation.
		util.PaymentWebhooksTotal.WithLabelValues("unmatched").Inc()
		ps.logger.Warn("Payment confirmation matched no order",
			zap.String("event_id", event.ID),
			zap.String("reference", event.Reference))
		return nil
	}

	if order.Status != models.OrderStatusPending {
		util.PaymentWebhooksTotal.WithLabelValues("duplicate").Inc()
		ps.logger.Info("Order already past pending, ignoring confirmation",
			zap.Int64("order_id", order.ID),
			zap.String("status", order.Status))
		return ps.store.MarkEventProcessed(ctx, event.ID, event.Type)
	}

	if err := ps.store.MarkOrderPaid(ctx, order.ID, event.Reference); err != nil {
		return err
	}

	if err := ps.store.MarkEventProcessed(ctx, event.ID, event.Type); err != nil {
		ps.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	util.OrdersPaidTotal.Inc()
	util.PaymentWebhooksTotal.WithLabelValues("applied").Inc()
	ps.logger.Info("Order marked paid",
		zap.Int64("order_id", order.ID),
		zap.String("payment_ref", event.Reference))

	if ps.publisher != nil {
		paidEvent := &models.OrderPaidEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPaid,
				Timestamp: time.Now(),
			},
			OrderID:    order.ID,
			PaymentRef: event.Reference,
			Amount:     event.Amount,
		}
		if err := ps.publisher.PublishOrderPaid(ctx, paidEvent); err != nil {
			ps.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
		}
	}

	return nil
}

// resolveOrder correlates an event to an order via the stored payment
// reference first, then the order id carried in the event.
func (ps *PaymentService) resolveOrder(ctx context.Context, event *payment.Event) (*models.Order, error) {
	if event.Reference != "" {
		order, err := ps.store.GetOrderByPaymentRef(ctx, event.Reference)
		if err != nil {
			return nil, models.PersistenceErr("failed to resolve order by reference", err)
		}
		if order != nil {
			return order, nil
		}
	}

	if event.OrderID > 0 {
		order, err := ps.store.GetOrderByID(ctx, event.OrderID)
		if err != nil {
			if models.KindOf(err) == models.KindNotFound {
				return nil, nil
			}
			return nil, err
		}
		return order, nil
	}

	return nil, nil
}
