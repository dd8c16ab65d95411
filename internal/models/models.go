package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Category groups products for browsing. Deleting a category detaches its
// products (category_id set to NULL) rather than blocking on references.
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description,omitempty"`
	ImageKey    string    `db:"image_key" json:"-"`
	ImageURL    string    `db:"-" json:"image_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a catalog entry. Price and InStock are authoritative here and
// re-read at checkout; carts only carry snapshots.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Slug        string          `db:"slug" json:"slug"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Description string          `db:"description" json:"description"`
	ImageKeys   pq.StringArray  `db:"image_keys" json:"-"`
	ImageURLs   []string        `db:"-" json:"image_urls"`
	InStock     bool            `db:"in_stock" json:"in_stock"`
	CategoryID  *int64          `db:"category_id" json:"category_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// MaxProductImages caps the image reference list per product.
const MaxProductImages = 5

// Order statuses. The transition graph lives in the status service.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusCancelled = "cancelled"
)

// Order is the persisted record of a checkout. Never deleted, only
// terminally cancelled.
type Order struct {
	ID             int64           `db:"id" json:"id"`
	Status         string          `db:"status" json:"status"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	ShippingCost   decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	ShippingMethod string          `db:"shipping_method" json:"shipping_method"`
	CustomerName   string          `db:"customer_name" json:"customer_name"`
	CustomerEmail  string          `db:"customer_email" json:"customer_email"`
	CustomerPhone  string          `db:"customer_phone" json:"customer_phone,omitempty"`
	AddressLine    string          `db:"address_line" json:"address_line"`
	City           string          `db:"city" json:"city"`
	PostalCode     string          `db:"postal_code" json:"postal_code"`
	PaymentRef     string          `db:"payment_ref" json:"payment_ref,omitempty"`
	Notes          string          `db:"notes" json:"notes,omitempty"`
	IdempotencyKey string          `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is one priced line of an Order. ProductID is a weak reference
// (NULLed when the product is deleted); the ProductName/ProductSlug/
// ProductImage snapshot keeps historical orders renderable regardless.
type OrderItem struct {
	ID           int64           `db:"id" json:"id"`
	OrderID      int64           `db:"order_id" json:"order_id"`
	ProductID    *int64          `db:"product_id" json:"product_id,omitempty"`
	ProductName  string          `db:"product_name" json:"product_name"`
	ProductSlug  string          `db:"product_slug" json:"product_slug"`
	ProductImage string          `db:"product_image" json:"product_image,omitempty"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	Discount     decimal.Decimal `db:"discount" json:"discount"`
}

// LineTotal is always derived, never stored, so it cannot drift from its
// inputs: (unit price - discount) * quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Sub(i.Discount).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Quote statuses. Any-to-any transitions are allowed; this is a lead-tracking
// label, not a financial state machine.
const (
	QuoteStatusNew       = "new"
	QuoteStatusInReview  = "in_review"
	QuoteStatusScheduled = "scheduled"
	QuoteStatusClosed    = "closed"
)

// Quote is an inbound quote/lead request from the public site.
type Quote struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone,omitempty"`
	ProjectType string    `db:"project_type" json:"project_type,omitempty"`
	Message     string    `db:"message" json:"message"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ValidQuoteStatus reports whether s is one of the known quote labels.
func ValidQuoteStatus(s string) bool {
	switch s {
	case QuoteStatusNew, QuoteStatusInReview, QuoteStatusScheduled, QuoteStatusClosed:
		return true
	}
	return false
}

// ProcessedEvent records handled webhook event ids for replay protection.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
