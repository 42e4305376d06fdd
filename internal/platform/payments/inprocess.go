package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InProcessProvider fulfils the Provider contract without an external
// processor. Used for cash and manual card entry, and as the default in
// development.
type InProcessProvider struct{}

func NewInProcessProvider() *InProcessProvider { return &InProcessProvider{} }

func (p *InProcessProvider) CreateIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("intent amount must not be negative")
	}
	return &Intent{PaymentIntentID: "pi_" + uuid.NewString()}, nil
}

func (p *InProcessProvider) RecordPayment(_ context.Context, req RecordRequest) (*Receipt, error) {
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("payment amount must not be negative")
	}
	return &Receipt{
		TransactionID: "txn_" + uuid.NewString(),
		Amount:        req.Amount,
		RecordedAt:    time.Now().UTC(),
	}, nil
}
