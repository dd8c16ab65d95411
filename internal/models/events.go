package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types published to the order lifecycle topic.
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderPaid          = "ORDER_PAID"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeQuoteReceived      = "QUOTE_RECEIVED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

// OrderCreatedEvent published when a checkout persists a pending order
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItemData `json:"items"`
}

// OrderPaidEvent published when a payment confirmation lands
type OrderPaidEvent struct {
	BaseEvent
	OrderID    int64           `json:"order_id"`
	PaymentRef string          `json:"payment_ref"`
	Amount     decimal.Decimal `json:"amount"`
}

// OrderStatusChangedEvent published on any administrative transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID    int64  `json:"order_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// QuoteReceivedEvent published when a quote request is filed
type QuoteReceivedEvent struct {
	BaseEvent
	QuoteID int64  `json:"quote_id"`
	Email   string `json:"email"`
}
