package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
)

func (f *fakeStore) addOrder(status string) *models.Order {
	f.nextOrder++
	o := &models.Order{ID: f.nextOrder, Status: status}
	f.orders[o.ID] = o
	return o
}

func (f *fakeStore) addQuote(status string) *models.Quote {
	f.nextQuote++
	q := &models.Quote{ID: f.nextQuote, Name: "Dana Reyes",
		Email: "dana@example.com", Message: "panel install", Status: status}
	f.quotes[q.ID] = q
	return q
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.OrderStatusPending, models.OrderStatusPaid, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusPending, models.OrderStatusFulfilled, false},
		{models.OrderStatusPaid, models.OrderStatusFulfilled, true},
		{models.OrderStatusPaid, models.OrderStatusCancelled, true},
		{models.OrderStatusPaid, models.OrderStatusPending, false},
		{models.OrderStatusFulfilled, models.OrderStatusPaid, false},
		{models.OrderStatusFulfilled, models.OrderStatusCancelled, false},
		{models.OrderStatusCancelled, models.OrderStatusPending, false},
		{models.OrderStatusPaid, models.OrderStatusPaid, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionOrderPendingToCancelled(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPending)

	svc := NewStatusService(store, nil)
	updated, err := svc.TransitionOrder(context.Background(), order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.Equal(t, models.OrderStatusCancelled, store.orders[order.ID].Status)
}

func TestTransitionOrderRejectsIllegalMove(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusFulfilled)

	svc := NewStatusService(store, nil)
	_, err := svc.TransitionOrder(context.Background(), order.ID, models.OrderStatusPaid)
	require.Error(t, err)
	assert.Equal(t, models.KindTransition, models.KindOf(err))
	assert.Equal(t, models.OrderStatusFulfilled, store.orders[order.ID].Status,
		"rejected transition must not touch the order")
}

// staleReadStore serves reads from a fixed status while the underlying store
// has already moved on, like a second admin transitioning between another
// request's read and write.
type staleReadStore struct {
	*fakeStore
	readStatus string
}

func (s *staleReadStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.fakeStore.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Status = s.readStatus
	return order, nil
}

func TestConcurrentTransitionRejectedByStatusGuard(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusFulfilled)

	// This request read the order while it was still paid; another request
	// fulfilled it in the meantime.
	svc := NewStatusService(&staleReadStore{fakeStore: store, readStatus: models.OrderStatusPaid}, nil)

	_, err := svc.TransitionOrder(context.Background(), order.ID, models.OrderStatusCancelled)
	require.Error(t, err)
	assert.Equal(t, models.KindTransition, models.KindOf(err))
	assert.Equal(t, models.OrderStatusFulfilled, store.orders[order.ID].Status,
		"a terminal order must never be re-transitioned by a stale read")
}

func TestTransitionOrderSameStatusIsNoOp(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPaid)

	svc := NewStatusService(store, nil)
	updated, err := svc.TransitionOrder(context.Background(), order.ID, models.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, updated.Status)
}

func TestTransitionOrderUnknownStatus(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPending)

	svc := NewStatusService(store, nil)
	_, err := svc.TransitionOrder(context.Background(), order.ID, "shipped")
	require.Error(t, err)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
}

func TestTransitionOrderNotFound(t *testing.T) {
	svc := NewStatusService(newFakeStore(), nil)
	_, err := svc.TransitionOrder(context.Background(), 42, models.OrderStatusPaid)
	require.Error(t, err)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestTransitionQuoteAnyToAny(t *testing.T) {
	store := newFakeStore()
	quote := store.addQuote(models.QuoteStatusClosed)

	svc := NewStatusService(store, nil)

	// Quotes have no graph: closed may reopen.
	updated, err := svc.TransitionQuote(context.Background(), quote.ID, models.QuoteStatusInReview)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusInReview, updated.Status)

	updated, err = svc.TransitionQuote(context.Background(), quote.ID, models.QuoteStatusNew)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusNew, updated.Status)
}

func TestTransitionQuoteUnknownLabel(t *testing.T) {
	store := newFakeStore()
	quote := store.addQuote(models.QuoteStatusNew)

	svc := NewStatusService(store, nil)
	_, err := svc.TransitionQuote(context.Background(), quote.ID, "archived")
	require.Error(t, err)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
	assert.Equal(t, models.QuoteStatusNew, store.quotes[quote.ID].Status)
}
