package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/util"
)

// OrderStore is the persistence surface the order ledger consumes.
type OrderStore interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	GetOrders(ctx context.Context, status string) ([]models.Order, error)
}

// OrderService is the order ledger: it turns a cart snapshot into a
// persisted Order plus OrderItems, atomically, at authoritative prices.
type OrderService struct {
	store         OrderStore
	idempotency   IdempotencyCache
	publisher     EventPublisher
	images        *ImageResolver
	shippingRates map[string]decimal.Decimal
	logger        *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	idempotency IdempotencyCache,
	publisher EventPublisher,
	images *ImageResolver,
	shippingRates map[string]decimal.Decimal,
) *OrderService {
	return &OrderService{
		store:         store,
		idempotency:   idempotency,
		publisher:     publisher,
		images:        images,
		shippingRates: shippingRates,
		logger:        util.GetLogger(),
	}
}

// CheckoutItem is one cart line at checkout time. Only product id, quantity
// and an externally supplied discount are trusted; the unit price is always
// re-read from the catalog.
type CheckoutItem struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Discount  decimal.Decimal `json:"discount"`
}

// CheckoutRequest is the schema-validated checkout payload.
type CheckoutRequest struct {
	Items          []CheckoutItem `json:"items" binding:"omitempty,dive"`
	ShippingMethod string         `json:"shipping_method" binding:"required"`
	CustomerName   string         `json:"customer_name" binding:"required"`
	CustomerEmail  string         `json:"customer_email" binding:"required,email"`
	CustomerPhone  string         `json:"customer_phone"`
	AddressLine    string         `json:"address_line" binding:"required"`
	City           string         `json:"city" binding:"required"`
	PostalCode     string         `json:"postal_code" binding:"required"`
	Notes          string         `json:"notes"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

// CheckoutResult pairs the persisted order with its line items.
type CheckoutResult struct {
	Order     *models.Order      `json:"order"`
	Items     []models.OrderItem `json:"items"`
	Duplicate bool               `json:"-"`
}

// CreateOrder creates a pending order from a cart snapshot. Every line is
// repriced from the catalog; the order and all items persist in one
// transaction or not at all. A reused idempotency key returns the original
// order instead of creating a second one.
func (s *OrderService) CreateOrder(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	} else if existing, err := s.findDuplicate(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if len(req.Items) == 0 {
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, models.Validationf("cannot check out an empty cart")
	}

	shippingCost, ok := s.shippingRates[req.ShippingMethod]
	if !ok {
		util.CheckoutFailedTotal.WithLabelValues("unknown_shipping").Inc()
		return nil, models.Validationf("unknown shipping method: %s", req.ShippingMethod)
	}

	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	total := shippingCost
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}

	order := &models.Order{
		Status:         models.OrderStatusPending,
		TotalAmount:    total,
		ShippingCost:   shippingCost,
		ShippingMethod: req.ShippingMethod,
		CustomerName:   strings.TrimSpace(req.CustomerName),
		CustomerEmail:  strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:  strings.TrimSpace(req.CustomerPhone),
		AddressLine:    strings.TrimSpace(req.AddressLine),
		City:           strings.TrimSpace(req.City),
		PostalCode:     strings.TrimSpace(req.PostalCode),
		Notes:          strings.TrimSpace(req.Notes),
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := s.store.CreateOrderWithItems(ctx, order, items); err != nil {
		if models.KindOf(err) == models.KindConflict {
			// The unique column says the key is taken, whatever the cache
			// thinks: read the winning order straight from the store.
			if existing, derr := s.loadDuplicate(ctx, req.IdempotencyKey); derr == nil && existing != nil {
				return existing, nil
			}
		}
		util.CheckoutFailedTotal.WithLabelValues("persistence").Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("total", order.TotalAmount.String()))

	if s.idempotency != nil {
		if err := s.idempotency.SetIdempotencyKey(ctx, req.IdempotencyKey, order.ID, 24*time.Hour); err != nil {
			s.logger.Warn("Failed to cache idempotency key", zap.Error(err))
		}
	}

	s.publishCreated(ctx, order, items)

	return &CheckoutResult{Order: order, Items: items}, nil
}

// findDuplicate is the entry fast path for a reused key. The cache is
// advisory only: a miss skips the store lookup, and a cold cache is caught
// later by the unique column on insert.
func (s *OrderService) findDuplicate(ctx context.Context, key string) (*CheckoutResult, error) {
	if s.idempotency != nil {
		if seen, err := s.idempotency.CheckIdempotencyKey(ctx, key); err != nil {
			s.logger.Warn("Idempotency cache unavailable", zap.Error(err))
		} else if !seen {
			return nil, nil
		}
	}
	return s.loadDuplicate(ctx, key)
}

// loadDuplicate reads the prior checkout for a key straight from the store.
func (s *OrderService) loadDuplicate(ctx context.Context, key string) (*CheckoutResult, error) {
	order, err := s.store.GetOrderByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Duplicate checkout detected",
		zap.String("idempotency_key", key),
		zap.Int64("order_id", order.ID))
	return &CheckoutResult{Order: order, Items: items, Duplicate: true}, nil
}

// buildItems reprices every line against the catalog and builds order items
// with denormalized display snapshots. Any bad line fails the whole checkout.
func (s *OrderService) buildItems(ctx context.Context, lines []CheckoutItem) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	seen := make(map[int64]bool, len(lines))

	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, models.Validationf("quantity must be at least 1 for product %d", line.ProductID)
		}
		if seen[line.ProductID] {
			return nil, models.Validationf("duplicate line for product %d", line.ProductID)
		}
		seen[line.ProductID] = true

		product, err := s.store.GetProductByID(ctx, line.ProductID)
		if err != nil {
			if models.KindOf(err) == models.KindNotFound {
				return nil, models.Validationf("product %d is no longer available", line.ProductID)
			}
			return nil, err
		}
		if !product.InStock {
			return nil, models.Validationf("product %q is out of stock", product.Title)
		}

		if line.Discount.IsNegative() || line.Discount.GreaterThan(product.Price) {
			return nil, models.Validationf("discount for product %d must be between 0 and the unit price", line.ProductID)
		}

		image := ""
		if len(product.ImageKeys) > 0 {
			image = s.images.Resolve(product.ImageKeys[0])
		}

		productID := product.ID
		items = append(items, models.OrderItem{
			ProductID:    &productID,
			ProductName:  product.Title,
			ProductSlug:  product.Slug,
			ProductImage: image,
			Quantity:     line.Quantity,
			UnitPrice:    product.Price,
			Discount:     line.Discount,
		})
	}

	return items, nil
}

func (s *OrderService) publishCreated(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if s.publisher == nil {
		return
	}

	eventItems := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		var productID int64
		if item.ProductID != nil {
			productID = *item.ProductID
		}
		eventItems = append(eventItems, models.OrderItemData{
			ProductID:   productID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
		})
	}

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		Items:       eventItems,
	}

	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}
}

// GetOrder retrieves an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// ListOrders lists orders most-recent-first, optionally filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	return s.store.GetOrders(ctx, status)
}
