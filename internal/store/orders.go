package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
)

// CreateOrderWithItems persists an order and all of its items as one
// transaction. A failure at any point rolls the whole write back; no partial
// order ever lands.
func (s *Store) CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.PersistenceErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (status, total_amount, shipping_cost, shipping_method,
		                    customer_name, customer_email, customer_phone,
		                    address_line, city, postal_code, notes, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err = tx.GetContext(ctx, order, orderQuery,
		order.Status, order.TotalAmount, order.ShippingCost, order.ShippingMethod,
		order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.AddressLine, order.City, order.PostalCode, order.Notes, order.IdempotencyKey)
	if isUniqueViolation(err) {
		return models.Conflictf("order already exists for idempotency key")
	}
	if err != nil {
		return models.PersistenceErr("failed to insert order", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, product_slug,
		                         product_image, quantity, unit_price, discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.GetContext(ctx, &items[i].ID, itemQuery,
			items[i].OrderID, items[i].ProductID, items[i].ProductName, items[i].ProductSlug,
			items[i].ProductImage, items[i].Quantity, items[i].UnitPrice, items[i].Discount)
		if err != nil {
			return models.PersistenceErr("failed to insert order item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.PersistenceErr("failed to commit order", err)
	}
	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey returns the order for a key, or nil when unused.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByPaymentRef resolves an order from its external payment reference,
// or nil when no order carries it.
func (s *Store) GetOrderByPaymentRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE payment_ref = $1", ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders lists orders most-recent-first, optionally filtered by status.
func (s *Store) GetOrders(ctx context.Context, status string) ([]models.Order, error) {
	var orders []models.Order
	if status == "" {
		err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY created_at DESC")
		return orders, err
	}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC", status)
	return orders, err
}

// UpdateOrderStatus moves an order between statuses in one guarded statement.
// The from-status in the WHERE clause keeps concurrent transitions from
// stacking: whoever writes second affects zero rows.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, from, to string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, orderID, from)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Transitionf("order %d is no longer %s", orderID, from)
	}
	return nil
}

// SetOrderPaymentRef records the external payment reference on an order.
func (s *Store) SetOrderPaymentRef(ctx context.Context, orderID int64, ref string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_ref = $1, updated_at = NOW() WHERE id = $2",
		ref, orderID)
	return err
}

// MarkOrderPaid transitions an order to paid and records the payment
// reference in one statement, guarded so a terminal order is never reverted.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID int64, ref string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, payment_ref = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`,
		models.OrderStatusPaid, ref, orderID, models.OrderStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFoundf("no pending order to mark paid: %d", orderID)
	}
	return nil
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// IsEventProcessed checks if a payment event has already been handled
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed records a handled payment event id
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
