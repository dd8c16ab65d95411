package service

import (
	"context"
	"time"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
)

// EventPublisher is the slice of the broker the services use. Implemented by
// *broker.EventPublisher; tests register fakes or pass nil to publish nothing.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishQuoteReceived(ctx context.Context, event *models.QuoteReceivedEvent) error
}

// IdempotencyCache is the fast-path duplicate-checkout guard. Implemented by
// *redisclient.Client; a nil cache falls through to the database lookup.
type IdempotencyCache interface {
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}
