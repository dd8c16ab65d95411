package worker

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/broker"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/util"
)

// NotificationWorker consumes order lifecycle events and drives fulfillment
// notifications. Actual mail dispatch lives outside this service; the worker
// records the outcome so operators see the pipeline moving.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a worker bound to the order events topic.
func NewNotificationWorker(consumer *broker.Consumer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCreated(w.handleOrderCreated)
	eventHandler.OnOrderPaid(w.handleOrderPaid)
	eventHandler.OnOrderStatusChanged(w.handleStatusChanged)
	eventHandler.OnQuoteReceived(w.handleQuoteReceived)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderCreated(_ context.Context, event *models.OrderCreatedEvent) error {
	w.logger.Info("Order confirmation queued",
		zap.Int64("order_id", event.OrderID),
		zap.String("total", event.TotalAmount.String()),
		zap.Int("items", len(event.Items)))
	return nil
}

func (w *NotificationWorker) handleOrderPaid(_ context.Context, event *models.OrderPaidEvent) error {
	w.logger.Info("Payment receipt queued",
		zap.Int64("order_id", event.OrderID),
		zap.String("payment_ref", event.PaymentRef))
	return nil
}

func (w *NotificationWorker) handleStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	w.logger.Info("Order status notification queued",
		zap.Int64("order_id", event.OrderID),
		zap.String("from", event.FromStatus),
		zap.String("to", event.ToStatus))
	return nil
}

func (w *NotificationWorker) handleQuoteReceived(_ context.Context, event *models.QuoteReceivedEvent) error {
	w.logger.Info("Quote acknowledgement queued",
		zap.Int64("quote_id", event.QuoteID))
	return nil
}
