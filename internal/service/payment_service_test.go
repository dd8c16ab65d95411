package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/payment"
)

const testWebhookSecret = "whsec_test"

type fakeGateway struct {
	session  *payment.Session
	err      error
	lastReq  payment.SessionRequest
	numCalls int
}

func (g *fakeGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	g.numCalls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

func newPaymentService(store *fakeStore, gateway payment.Gateway) *PaymentService {
	return NewPaymentService(store, gateway, nil, testWebhookSecret,
		"https://shop.test/thanks", "https://shop.test/cart")
}

func signedEvent(t *testing.T, event payment.Event) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body, payment.Sign(testWebhookSecret, body)
}

func TestBeginPaymentReturnsRedirect(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPending)
	order.TotalAmount = decimal.RequireFromString("3029.00")

	gateway := &fakeGateway{session: &payment.Session{
		Reference:   "sess_123",
		RedirectURL: "https://pay.test/sess_123",
	}}

	svc := newPaymentService(store, gateway)
	redirect, err := svc.BeginPayment(context.Background(), order.ID, "", "")
	require.NoError(t, err)

	assert.Equal(t, "https://pay.test/sess_123", redirect)
	assert.Equal(t, "sess_123", store.orders[order.ID].PaymentRef)
	assert.True(t, gateway.lastReq.Amount.Equal(decimal.RequireFromString("3029.00")))
	assert.Equal(t, "https://shop.test/thanks", gateway.lastReq.SuccessURL)
	assert.Equal(t, models.OrderStatusPending, store.orders[order.ID].Status,
		"beginning payment must not change the status")
}

func TestBeginPaymentRejectsNonPendingOrder(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPaid)

	gateway := &fakeGateway{}
	svc := newPaymentService(store, gateway)

	_, err := svc.BeginPayment(context.Background(), order.ID, "", "")
	require.Error(t, err)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
	assert.Zero(t, gateway.numCalls)
}

func TestBeginPaymentProcessorFailureLeavesOrderRetryable(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPending)

	gateway := &fakeGateway{err: models.PaymentErr("payment processor unreachable", nil)}
	svc := newPaymentService(store, gateway)

	_, err := svc.BeginPayment(context.Background(), order.ID, "", "")
	require.Error(t, err)
	assert.Equal(t, models.KindPayment, models.KindOf(err))
	assert.Equal(t, models.OrderStatusPending, store.orders[order.ID].Status)
	assert.Empty(t, store.orders[order.ID].PaymentRef)
}

func TestHandleConfirmationMarksOrderPaid(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPending)
	order.PaymentRef = "sess_123"

	svc := newPaymentService(store, &fakeGateway{})
	body, sig := signedEvent(t, payment.Event{
		ID:        "evt_1",
		Type:      payment.EventPaymentSucceeded,
		Reference: "sess_123",
		OrderID:   order.ID,
		Amount:    decimal.RequireFromString("3029.00"),
	})

	require.NoError(t, svc.HandleConfirmation(context.Background(), body, sig))
	assert.Equal(t, models.OrderStatusPaid, store.orders[order.ID].Status)
	assert.Contains(t, store.processed, "evt_1")
}

func TestHandleConfirmationBadSignature(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPending)
	order.PaymentRef = "sess_123"

	svc := newPaymentService(store, &fakeGateway{})
	body, _ := signedEvent(t, payment.Event{
		ID:        "evt_1",
		Type:      payment.EventPaymentSucceeded,
		Reference: "sess_123",
	})

	err := svc.HandleConfirmation(context.Background(), body, "deadbeef")
	require.Error(t, err)
	assert.Equal(t, models.KindAuthentication, models.KindOf(err))
	assert.Equal(t, models.OrderStatusPending, store.orders[order.ID].Status,
		"unverified events must not reach order state")
	assert.Empty(t, store.processed)
}

func TestHandleConfirmationReplayedEventAppliesOnce(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPending)
	order.PaymentRef = "sess_123"

	svc := newPaymentService(store, &fakeGateway{})
	body, sig := signedEvent(t, payment.Event{
		ID:        "evt_1",
		Type:      payment.EventPaymentSucceeded,
		Reference: "sess_123",
	})

	ctx := context.Background()
	require.NoError(t, svc.HandleConfirmation(ctx, body, sig))
	require.NoError(t, svc.HandleConfirmation(ctx, body, sig))

	assert.Equal(t, models.OrderStatusPaid, store.orders[order.ID].Status)
}

func TestHandleConfirmationUnmatchedEventIgnored(t *testing.T) {
	store := newFakeStore()

	svc := newPaymentService(store, &fakeGateway{})
	body, sig := signedEvent(t, payment.Event{
		ID:        "evt_9",
		Type:      payment.EventPaymentSucceeded,
		Reference: "sess_unknown",
	})

	require.NoError(t, svc.HandleConfirmation(context.Background(), body, sig))
	assert.Empty(t, store.orders, "no order may be fabricated for an unknown confirmation")
}

func TestHandleConfirmationFailedPaymentLeavesOrderPending(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPending)
	order.PaymentRef = "sess_123"

	svc := newPaymentService(store, &fakeGateway{})
	body, sig := signedEvent(t, payment.Event{
		ID:        "evt_2",
		Type:      payment.EventPaymentFailed,
		Reference: "sess_123",
	})

	require.NoError(t, svc.HandleConfirmation(context.Background(), body, sig))
	assert.Equal(t, models.OrderStatusPending, store.orders[order.ID].Status)
	assert.Contains(t, store.processed, "evt_2")
}

func TestHandleConfirmationResolvesByOrderID(t *testing.T) {
	store := newFakeStore()
	order := store.addOrder(models.OrderStatusPending)

	// No payment ref stored; the event's order id is the only correlation.
	svc := newPaymentService(store, &fakeGateway{})
	body, sig := signedEvent(t, payment.Event{
		ID:      "evt_3",
		Type:    payment.EventPaymentSucceeded,
		OrderID: order.ID,
	})

	require.NoError(t, svc.HandleConfirmation(context.Background(), body, sig))
	assert.Equal(t, models.OrderStatusPaid, store.orders[order.ID].Status)
}
