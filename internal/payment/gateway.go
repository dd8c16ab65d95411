// Package payment is the boundary to the external payment processor. The
// processor is a black box: outbound we ask for a hosted payment session,
// inbound we receive signed confirmation events. Nothing here touches order
// state; that orchestration lives in the service layer.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
)

// Session is the processor's answer to a begin-payment request: where to
// send the customer, and the reference used to correlate the confirmation.
type Session struct {
	Reference   string `json:"id"`
	RedirectURL string `json:"url"`
}

// SessionRequest describes one hosted payment session.
type SessionRequest struct {
	OrderID    int64           `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	SuccessURL string          `json:"success_url"`
	CancelURL  string          `json:"cancel_url"`
}

// Gateway creates hosted payment sessions with the processor.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// HostedGateway talks to the processor's session API over HTTPS. All calls
// carry a timeout; on timeout nothing has committed and the caller retries.
type HostedGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHostedGateway creates a gateway client for the processor at baseURL.
func NewHostedGateway(baseURL, apiKey string, timeout time.Duration) *HostedGateway {
	return &HostedGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// CreateSession asks the processor to open a hosted payment session.
func (g *HostedGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, models.PaymentErr("payment processor unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, models.PaymentErr(
			fmt.Sprintf("payment processor rejected session: status %d", resp.StatusCode), nil)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, models.PaymentErr("failed to decode session response", err)
	}
	if session.Reference == "" || session.RedirectURL == "" {
		return nil, models.PaymentErr("payment processor returned incomplete session", nil)
	}

	return &session, nil
}
