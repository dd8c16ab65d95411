package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
)

// fakeStore is an in-memory stand-in for *store.Store shared by the service
// tests in this package.
type fakeStore struct {
	products   map[int64]*models.Product
	orders     map[int64]*models.Order
	orderItems map[int64][]models.OrderItem
	quotes     map[int64]*models.Quote
	processed  map[string]string
	nextOrder  int64
	nextQuote  int64
	nextItem   int64
	failWrites bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:   make(map[int64]*models.Product),
		orders:     make(map[int64]*models.Order),
		orderItems: make(map[int64][]models.OrderItem),
		quotes:     make(map[int64]*models.Quote),
		processed:  make(map[string]string),
	}
}

func (f *fakeStore) addProduct(p models.Product) *models.Product {
	cp := p
	f.products[p.ID] = &cp
	return &cp
}

func (f *fakeStore) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, models.NotFoundf("product not found: %d", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) CreateOrderWithItems(_ context.Context, order *models.Order, items []models.OrderItem) error {
	if f.failWrites {
		return models.PersistenceErr("failed to insert order", assert.AnError)
	}
	for _, existing := range f.orders {
		if existing.IdempotencyKey == order.IdempotencyKey {
			return models.Conflictf("order already exists for idempotency key")
		}
	}

	f.nextOrder++
	order.ID = f.nextOrder
	cp := *order
	f.orders[order.ID] = &cp

	stored := make([]models.OrderItem, len(items))
	for i := range items {
		f.nextItem++
		items[i].ID = f.nextItem
		items[i].OrderID = order.ID
		stored[i] = items[i]
	}
	f.orderItems[order.ID] = stored
	return nil
}

func (f *fakeStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, models.NotFoundf("order not found: %d", id)
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) GetOrderByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetOrderByPaymentRef(_ context.Context, ref string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.PaymentRef == ref && ref != "" {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetOrderItemsByOrderID(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), f.orderItems[orderID]...), nil
}

func (f *fakeStore) GetOrders(_ context.Context, status string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderID int64, from, to string) error {
	o, ok := f.orders[orderID]
	if !ok || o.Status != from {
		return models.Transitionf("order %d is no longer %s", orderID, from)
	}
	o.Status = to
	return nil
}

func (f *fakeStore) SetOrderPaymentRef(_ context.Context, orderID int64, ref string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return models.NotFoundf("order not found: %d", orderID)
	}
	o.PaymentRef = ref
	return nil
}

func (f *fakeStore) MarkOrderPaid(_ context.Context, orderID int64, ref string) error {
	o, ok := f.orders[orderID]
	if !ok || o.Status != models.OrderStatusPending {
		return models.NotFoundf("no pending order to mark paid: %d", orderID)
	}
	o.Status = models.OrderStatusPaid
	o.PaymentRef = ref
	return nil
}

func (f *fakeStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	_, ok := f.processed[eventID]
	return ok, nil
}

func (f *fakeStore) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	f.processed[eventID] = eventType
	return nil
}

func (f *fakeStore) CreateQuote(_ context.Context, q *models.Quote) error {
	f.nextQuote++
	q.ID = f.nextQuote
	cp := *q
	f.quotes[q.ID] = &cp
	return nil
}

func (f *fakeStore) GetQuoteByID(_ context.Context, id int64) (*models.Quote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, models.NotFoundf("quote not found: %d", id)
	}
	cp := *q
	return &cp, nil
}

func (f *fakeStore) GetQuotes(_ context.Context, status string) ([]models.Quote, error) {
	var out []models.Quote
	for _, q := range f.quotes {
		if status == "" || q.Status == status {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateQuoteStatus(_ context.Context, id int64, status string) error {
	q, ok := f.quotes[id]
	if !ok {
		return models.NotFoundf("quote not found: %d", id)
	}
	q.Status = status
	return nil
}

func testRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"standard": decimal.RequireFromString("29.00"),
		"pickup":   decimal.Zero,
	}
}

func newOrderService(store *fakeStore) *OrderService {
	return NewOrderService(store, nil, nil, NewImageResolver("https://cdn.test/media"), testRates())
}

func starterPackCheckout(key string) *CheckoutRequest {
	return &CheckoutRequest{
		Items:          []CheckoutItem{{ProductID: 7, Quantity: 2}},
		ShippingMethod: "standard",
		CustomerName:   "Dana Reyes",
		CustomerEmail:  "dana@example.com",
		AddressLine:    "12 Ridge Rd",
		City:           "Asheville",
		PostalCode:     "28801",
		IdempotencyKey: key,
	}
}

func TestCreateOrderFromCartSnapshot(t *testing.T) {
	store := newFakeStore()
	store.addProduct(models.Product{
		ID:        7,
		Title:     "Energy Starter Pack",
		Slug:      "energy-starter-pack",
		Price:     decimal.RequireFromString("1500.00"),
		ImageKeys: []string{"products/starter.jpg"},
		InStock:   true,
	})

	svc := newOrderService(store)
	result, err := svc.CreateOrder(context.Background(), starterPackCheckout("k-1"))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, result.Order.Status)
	assert.True(t, result.Order.TotalAmount.Equal(decimal.RequireFromString("3029.00")),
		"total = %s", result.Order.TotalAmount)
	assert.True(t, result.Order.ShippingCost.Equal(decimal.RequireFromString("29.00")))

	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.True(t, item.LineTotal().Equal(decimal.RequireFromString("3000.00")),
		"line total = %s", item.LineTotal())
	assert.Equal(t, "Energy Starter Pack", item.ProductName)
	assert.Equal(t, "energy-starter-pack", item.ProductSlug)
	assert.Equal(t, "https://cdn.test/media/products/starter.jpg", item.ProductImage)
	require.NotNil(t, item.ProductID)
	assert.Equal(t, int64(7), *item.ProductID)
}

func TestOrderTotalReproducibleFromPersistedItems(t *testing.T) {
	store := newFakeStore()
	store.addProduct(models.Product{ID: 1, Title: "Panel Kit", Slug: "panel-kit",
		Price: decimal.RequireFromString("499.99"), InStock: true})
	store.addProduct(models.Product{ID: 2, Title: "Inverter", Slug: "inverter",
		Price: decimal.RequireFromString("120.50"), InStock: true})

	svc := newOrderService(store)
	req := &CheckoutRequest{
		Items: []CheckoutItem{
			{ProductID: 1, Quantity: 3, Discount: decimal.RequireFromString("50.00")},
			{ProductID: 2, Quantity: 2},
		},
		ShippingMethod: "pickup",
		CustomerName:   "Dana Reyes",
		CustomerEmail:  "dana@example.com",
		AddressLine:    "12 Ridge Rd",
		City:           "Asheville",
		PostalCode:     "28801",
	}

	result, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	persisted, err := store.GetOrderItemsByOrderID(context.Background(), result.Order.ID)
	require.NoError(t, err)

	recomputed := result.Order.ShippingCost
	for _, item := range persisted {
		assert.GreaterOrEqual(t, item.Quantity, 1)
		assert.False(t, item.Discount.IsNegative())
		assert.True(t, item.Discount.LessThanOrEqual(item.UnitPrice))
		recomputed = recomputed.Add(item.LineTotal())
	}
	assert.True(t, recomputed.Equal(result.Order.TotalAmount),
		"recomputed %s != stored %s", recomputed, result.Order.TotalAmount)
}

func TestCreateOrderRepricesFromCatalog(t *testing.T) {
	store := newFakeStore()
	store.addProduct(models.Product{ID: 1, Title: "Panel Kit", Slug: "panel-kit",
		Price: decimal.RequireFromString("750.00"), InStock: true})

	svc := newOrderService(store)
	// The request carries no price at all; the catalog's is the only input.
	result, err := svc.CreateOrder(context.Background(), &CheckoutRequest{
		Items:          []CheckoutItem{{ProductID: 1, Quantity: 1}},
		ShippingMethod: "pickup",
		CustomerName:   "Dana Reyes",
		CustomerEmail:  "dana@example.com",
		AddressLine:    "12 Ridge Rd",
		City:           "Asheville",
		PostalCode:     "28801",
	})
	require.NoError(t, err)
	assert.True(t, result.Items[0].UnitPrice.Equal(decimal.RequireFromString("750.00")))
}

func TestCreateOrderFailsWholeOnBadLine(t *testing.T) {
	store := newFakeStore()
	store.addProduct(models.Product{ID: 1, Title: "Panel Kit", Slug: "panel-kit",
		Price: decimal.RequireFromString("100.00"), InStock: true})
	store.addProduct(models.Product{ID: 2, Title: "Legacy Kit", Slug: "legacy-kit",
		Price: decimal.RequireFromString("100.00"), InStock: false})

	svc := newOrderService(store)

	cases := []struct {
		name  string
		items []CheckoutItem
	}{
		{"deleted product", []CheckoutItem{{ProductID: 1, Quantity: 1}, {ProductID: 99, Quantity: 1}}},
		{"out of stock", []CheckoutItem{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}}},
		{"discount above unit price", []CheckoutItem{
			{ProductID: 1, Quantity: 1, Discount: decimal.RequireFromString("150.00")}}},
		{"empty cart", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := starterPackCheckout("")
			req.Items = tc.items

			_, err := svc.CreateOrder(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, models.KindValidation, models.KindOf(err))
			assert.Empty(t, store.orders, "no partial order may be written")
		})
	}
}

func TestCreateOrderUnknownShippingMethod(t *testing.T) {
	store := newFakeStore()
	store.addProduct(models.Product{ID: 7, Title: "Energy Starter Pack",
		Slug: "energy-starter-pack", Price: decimal.RequireFromString("1500.00"), InStock: true})

	svc := newOrderService(store)
	req := starterPackCheckout("")
	req.ShippingMethod = "overnight-drone"

	_, err := svc.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
}

func TestDuplicateIdempotencyKeyReturnsOriginalOrder(t *testing.T) {
	store := newFakeStore()
	store.addProduct(models.Product{ID: 7, Title: "Energy Starter Pack",
		Slug: "energy-starter-pack", Price: decimal.RequireFromString("1500.00"), InStock: true})

	svc := newOrderService(store)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, starterPackCheckout("same-key"))
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := svc.CreateOrder(ctx, starterPackCheckout("same-key"))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Len(t, store.orders, 1)
}

// coldCache reports every key as unseen, as after a Redis restart or an
// expired cache entry.
type coldCache struct{}

func (coldCache) CheckIdempotencyKey(context.Context, string) (bool, error) {
	return false, nil
}

func (coldCache) SetIdempotencyKey(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func TestDuplicateKeySurvivesColdIdempotencyCache(t *testing.T) {
	store := newFakeStore()
	store.addProduct(models.Product{ID: 7, Title: "Energy Starter Pack",
		Slug: "energy-starter-pack", Price: decimal.RequireFromString("1500.00"), InStock: true})

	// The cache never remembers the key; only the unique column does.
	svc := NewOrderService(store, coldCache{}, nil, NewImageResolver("https://cdn.test/media"), testRates())
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, starterPackCheckout("same-key"))
	require.NoError(t, err)

	second, err := svc.CreateOrder(ctx, starterPackCheckout("same-key"))
	require.NoError(t, err, "a reused key must return the original order, not a conflict")
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Len(t, store.orders, 1)
}

func TestCreateOrderPersistenceFailureSurfaces(t *testing.T) {
	store := newFakeStore()
	store.addProduct(models.Product{ID: 7, Title: "Energy Starter Pack",
		Slug: "energy-starter-pack", Price: decimal.RequireFromString("1500.00"), InStock: true})
	store.failWrites = true

	svc := newOrderService(store)
	_, err := svc.CreateOrder(context.Background(), starterPackCheckout(""))
	require.Error(t, err)
	assert.Equal(t, models.KindPersistence, models.KindOf(err))
}
