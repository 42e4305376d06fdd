package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Checkout stages.
const (
	StageCart    = "cart"
	StagePayment = "payment"
	StageReceipt = "receipt"
)

// Tip modes.
const (
	TipPercent = "percent"
	TipFixed   = "fixed"
)

// Payment methods a session can finalize with.
const (
	MethodCredit = "credit"
	MethodCash   = "cash"
	MethodGift   = "gift"
	MethodOther  = "other"
)

// CartLine is one item in an in-progress checkout.
type CartLine struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Category  string          `json:"category"`
}

// Session is the state of one point-of-sale checkout. It lives in memory for
// the lifetime of the flow; completing the receipt stage resets it back to an
// empty cart.
type Session struct {
	ID               uuid.UUID       `json:"id"`
	Lines            []CartLine      `json:"lines"`
	DiscountEnabled  bool            `json:"discount_enabled"`
	DiscountPercent  decimal.Decimal `json:"discount_percent"`
	TipMode          string          `json:"tip_mode"`
	TipValue         decimal.Decimal `json:"tip_value"`
	CustomerID       *uuid.UUID      `json:"customer_id,omitempty"`
	PaymentMethod    string          `json:"payment_method"`
	Stage            string          `json:"stage"`
	PaymentIntentRef string          `json:"payment_intent_ref,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// reset returns the session to a fresh cart. Identity and creation time
// survive; everything the customer entered is cleared.
func (s *Session) reset() {
	s.Lines = nil
	s.DiscountEnabled = false
	s.DiscountPercent = decimal.Zero
	s.TipMode = TipPercent
	s.TipValue = decimal.Zero
	s.CustomerID = nil
	s.PaymentMethod = MethodCredit
	s.Stage = StageCart
	s.PaymentIntentRef = ""
}
