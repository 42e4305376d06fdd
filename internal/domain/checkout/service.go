package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainpayment "github.com/clinichq/clinic-api/internal/domain/payment"
	"github.com/clinichq/clinic-api/internal/platform/payments"
)

var (
	// ErrNotFound is returned when no session exists for the given id.
	ErrNotFound = errors.New("checkout session not found")
	// ErrEmptyCart is returned when checkout is attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidStage is returned when an action is not valid in the
	// session's current stage.
	ErrInvalidStage = errors.New("action not valid in current stage")
)

var validMethods = map[string]bool{
	MethodCredit: true,
	MethodCash:   true,
	MethodGift:   true,
	MethodOther:  true,
}

// Ledger persists the finalized payment. Satisfied by the payment service, so
// a finished checkout lands in the same books as a directly recorded payment.
type Ledger interface {
	Record(ctx context.Context, p *domainpayment.Payment) error
}

// Service drives the three-stage point-of-sale flow: cart, payment, receipt.
// Forward transitions carry side effects and advance only when those succeed;
// Back is pure navigation and never touches money.
type Service struct {
	store    *sessionStore
	provider payments.Provider
	ledger   Ledger
}

func NewService(provider payments.Provider, ledger Ledger) *Service {
	return &Service{store: newSessionStore(), provider: provider, ledger: ledger}
}

// Open starts a fresh session at the cart stage.
func (s *Service) Open(_ context.Context) *Session {
	return s.store.open()
}

func (s *Service) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	return s.store.get(id)
}

// Totals prices the session as it currently stands.
func (s *Service) Totals(_ context.Context, id uuid.UUID) (Totals, error) {
	sess, err := s.store.get(id)
	if err != nil {
		return Totals{}, err
	}
	return Price(sess), nil
}

func (s *Service) AddLine(_ context.Context, id uuid.UUID, line CartLine) (*Session, error) {
	return s.store.update(id, func(sess *Session) error {
		if sess.Stage != StageCart {
			return fmt.Errorf("%w: cart can only change in the cart stage", ErrInvalidStage)
		}
		if line.Name == "" {
			return fmt.Errorf("line name is required")
		}
		if line.UnitPrice.IsNegative() {
			return fmt.Errorf("unit_price must not be negative")
		}
		if line.Quantity < 1 {
			return fmt.Errorf("quantity must be at least 1")
		}
		if line.Category != "service" && line.Category != "product" {
			return fmt.Errorf("category must be service or product")
		}
		line.ID = uuid.New()
		sess.Lines = append(sess.Lines, line)
		return nil
	})
}

func (s *Service) RemoveLine(_ context.Context, id, lineID uuid.UUID) (*Session, error) {
	return s.store.update(id, func(sess *Session) error {
		if sess.Stage != StageCart {
			return fmt.Errorf("%w: cart can only change in the cart stage", ErrInvalidStage)
		}
		for i, line := range sess.Lines {
			if line.ID == lineID {
				sess.Lines = append(sess.Lines[:i], sess.Lines[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("line %s not in cart", lineID)
	})
}

func (s *Service) SetDiscount(_ context.Context, id uuid.UUID, enabled bool, percent decimal.Decimal) (*Session, error) {
	return s.store.update(id, func(sess *Session) error {
		if sess.Stage != StageCart {
			return fmt.Errorf("%w: discount can only change in the cart stage", ErrInvalidStage)
		}
		if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("discount percent must be between 0 and 100")
		}
		sess.DiscountEnabled = enabled
		sess.DiscountPercent = percent
		return nil
	})
}

func (s *Service) SetTip(_ context.Context, id uuid.UUID, mode string, value decimal.Decimal) (*Session, error) {
	return s.store.update(id, func(sess *Session) error {
		if sess.Stage != StageCart {
			return fmt.Errorf("%w: tip can only change in the cart stage", ErrInvalidStage)
		}
		if mode != TipPercent && mode != TipFixed {
			return fmt.Errorf("tip mode must be percent or fixed")
		}
		if value.IsNegative() {
			return fmt.Errorf("tip value must not be negative")
		}
		sess.TipMode = mode
		sess.TipValue = value
		return nil
	})
}

func (s *Service) SetCustomer(_ context.Context, id uuid.UUID, customerID *uuid.UUID) (*Session, error) {
	return s.store.update(id, func(sess *Session) error {
		if sess.Stage != StageCart {
			return fmt.Errorf("%w: customer can only change in the cart stage", ErrInvalidStage)
		}
		sess.CustomerID = customerID
		return nil
	})
}

func (s *Service) SetPaymentMethod(_ context.Context, id uuid.UUID, method string) (*Session, error) {
	return s.store.update(id, func(sess *Session) error {
		if sess.Stage != StageCart {
			return fmt.Errorf("%w: payment method can only change in the cart stage", ErrInvalidStage)
		}
		if !validMethods[method] {
			return fmt.Errorf("invalid payment method %q", method)
		}
		sess.PaymentMethod = method
		return nil
	})
}

// Checkout advances cart to payment. The cart must have at least one line.
func (s *Service) Checkout(_ context.Context, id uuid.UUID) (*Session, error) {
	return s.store.update(id, func(sess *Session) error {
		if sess.Stage != StageCart {
			return fmt.Errorf("%w: checkout starts from the cart stage", ErrInvalidStage)
		}
		if len(sess.Lines) == 0 {
			return ErrEmptyCart
		}
		sess.Stage = StagePayment
		return nil
	})
}

// Confirm advances payment to receipt. It reserves a payment intent with the
// provider for the full total first; when that call fails the session stays
// in the payment stage with nothing changed.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.store.get(id)
	if err != nil {
		return nil, err
	}
	if sess.Stage != StagePayment {
		return nil, fmt.Errorf("%w: confirm requires the payment stage", ErrInvalidStage)
	}

	totals := Price(sess)
	intent, err := s.provider.CreateIntent(ctx, payments.IntentRequest{
		Amount:     totals.Total.Round(2),
		Items:      providerItems(sess.Lines),
		CustomerID: sess.CustomerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return s.store.update(id, func(sess *Session) error {
		if sess.Stage != StagePayment {
			return fmt.Errorf("%w: confirm requires the payment stage", ErrInvalidStage)
		}
		sess.PaymentIntentRef = intent.PaymentIntentID
		sess.Stage = StageReceipt
		return nil
	})
}

// Done finalizes the receipt stage: the payment is recorded with the provider
// and written to the ledger, then the session resets to an empty cart. Any
// failure leaves the session at the receipt stage; calling Done again retries,
// and the ledger dedupes on the intent reference so a retry cannot double
// record. A retry does re-send RecordPayment, so the provider can see the
// same intent more than once, each time under a fresh transaction id; the
// ledger keeps only the latest.
func (s *Service) Done(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.store.get(id)
	if err != nil {
		return nil, err
	}
	if sess.Stage != StageReceipt {
		return nil, fmt.Errorf("%w: done requires the receipt stage", ErrInvalidStage)
	}

	totals := Price(sess)
	amount := totals.Total.Round(2)
	receipt, err := s.provider.RecordPayment(ctx, payments.RecordRequest{
		PaymentIntentID: sess.PaymentIntentRef,
		CustomerID:      sess.CustomerID,
		Amount:          amount,
		Items:           providerItems(sess.Lines),
		PaymentMethod:   sess.PaymentMethod,
		Status:          domainpayment.StatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	p := &domainpayment.Payment{
		PatientID:     sess.CustomerID,
		Amount:        amount,
		PaymentMethod: sess.PaymentMethod,
		Status:        domainpayment.StatusCompleted,
		Date:          receipt.RecordedAt,
		TransactionID: &receipt.TransactionID,
	}
	if sess.PaymentIntentRef != "" {
		ref := sess.PaymentIntentRef
		p.StripePaymentIntentID = &ref
	}
	if err := s.ledger.Record(ctx, p); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	return s.store.update(id, func(sess *Session) error {
		if sess.Stage != StageReceipt {
			return fmt.Errorf("%w: done requires the receipt stage", ErrInvalidStage)
		}
		sess.reset()
		return nil
	})
}

// Back steps one stage towards the cart without side effects: nothing the
// customer entered is lost and no payment call is re-triggered.
func (s *Service) Back(_ context.Context, id uuid.UUID) (*Session, error) {
	return s.store.update(id, func(sess *Session) error {
		switch sess.Stage {
		case StagePayment:
			sess.Stage = StageCart
		case StageReceipt:
			sess.Stage = StagePayment
		default:
			return fmt.Errorf("%w: already at the cart stage", ErrInvalidStage)
		}
		return nil
	})
}

// Close abandons a session.
func (s *Service) Close(_ context.Context, id uuid.UUID) {
	s.store.close(id)
}

func providerItems(lines []CartLine) []payments.Item {
	items := make([]payments.Item, len(lines))
	for i, l := range lines {
		items[i] = payments.Item{Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}
	return items
}
