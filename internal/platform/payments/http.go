package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPProvider talks to an external payment service over a Stripe-style JSON
// API: POST /payment_intents to reserve a charge, POST /payments to record
// one.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	var intent Intent
	if err := p.post(ctx, "/payment_intents", req, &intent); err != nil {
		return nil, err
	}
	if intent.PaymentIntentID == "" {
		return nil, fmt.Errorf("%w: empty payment_intent_id", ErrUpstream)
	}
	return &intent, nil
}

func (p *HTTPProvider) RecordPayment(ctx context.Context, req RecordRequest) (*Receipt, error) {
	var receipt Receipt
	if err := p.post(ctx, "/payments", req, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}
