package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
)

// Webhook event types the processor sends.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Payment-Signature"

// Event is an asynchronous, signed notification of a payment outcome.
// Reference is the session reference handed out at begin-payment time;
// OrderID is the correlation id we passed in the session request.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Reference string          `json:"reference"`
	OrderID   int64           `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// Sign computes the hex HMAC-SHA256 of payload under secret. Exported for
// tests and for any outbound signing need.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func VerifySignature(secret string, payload []byte, signature string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseEvent verifies and decodes a raw webhook body. An invalid signature
// is an authentication failure: the event is rejected before any decoding
// result can reach order state.
func ParseEvent(secret string, payload []byte, signature string) (*Event, error) {
	if !VerifySignature(secret, payload, signature) {
		return nil, models.AuthenticationErr("webhook signature verification failed")
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, models.Validationf("malformed webhook payload: %v", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, models.Validationf("webhook payload missing id or type")
	}

	return &event, nil
}
