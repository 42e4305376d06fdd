package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUpstream is returned when the payment collaborator is unreachable or
// rejects a request for a non-business reason.
var ErrUpstream = errors.New("payment provider unavailable")

// Item is a line item forwarded to the payment provider, mirroring what the
// customer sees on the receipt.
type Item struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// IntentRequest asks the provider to reserve a charge for the given amount.
type IntentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Items      []Item          `json:"items"`
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
}

// Intent is the provider's handle for a reserved charge.
type Intent struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// RecordRequest finalizes a charge against a previously created intent.
type RecordRequest struct {
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	CustomerID      *uuid.UUID      `json:"customer_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Items           []Item          `json:"items"`
	PaymentMethod   string          `json:"payment_method"`
	Status          string          `json:"status"`
}

// Receipt is the provider's confirmation of a recorded payment.
type Receipt struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// Provider is the payment-intent collaborator consumed by the checkout flow.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	RecordPayment(ctx context.Context, req RecordRequest) (*Receipt, error)
}
