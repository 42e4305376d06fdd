package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinichq/clinic-api/internal/domain/activity"
)

// ErrNotFound is returned when no payment exists for the given id.
var ErrNotFound = errors.New("payment not found")

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusCompleted: true,
	StatusFailed:    true,
}

// AppointmentMarker marks a linked appointment paid. Satisfied by the
// appointment repository.
type AppointmentMarker interface {
	SetPaid(ctx context.Context, id uuid.UUID, amount decimal.Decimal, method string) error
}

// PointsAwarder converts a completed payment into loyalty earnings.
// Satisfied by the loyalty service.
type PointsAwarder interface {
	AwardDollars(ctx context.Context, patientID uuid.UUID, amount decimal.Decimal, description string) error
}

// TxRunner runs fn atomically. The postgres backend wraps db.WithTx; the
// memory backend runs fn directly.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo     Repository
	appts    AppointmentMarker
	points   PointsAwarder
	recorder activity.Recorder
	runTx    TxRunner
}

func NewService(repo Repository, appts AppointmentMarker, points PointsAwarder, recorder activity.Recorder, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{repo: repo, appts: appts, points: points, recorder: recorder, runTx: runTx}
}

// Record persists a payment. When the payment is completed and linked to an
// appointment, the appointment's payment fields are updated in the same
// transaction, so a paid appointment always has its completed payment on
// record. Loyalty earning (one point per whole dollar) fans out for the
// patient on first insert only, keeping retried calls idempotent.
func (s *Service) Record(ctx context.Context, p *Payment) error {
	// Zero is allowed: a fully comped sale still produces a receipt.
	if p.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative")
	}
	if p.PaymentMethod == "" {
		return fmt.Errorf("payment_method is required")
	}
	if p.Status == "" {
		p.Status = StatusCompleted
	}
	if !validStatuses[p.Status] {
		return fmt.Errorf("invalid status %q", p.Status)
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}

	var inserted bool
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		inserted, err = s.repo.Create(ctx, p)
		if err != nil {
			return err
		}
		if p.Status != StatusCompleted {
			return nil
		}
		if p.AppointmentID != nil {
			if err := s.appts.SetPaid(ctx, *p.AppointmentID, p.Amount, p.PaymentMethod); err != nil {
				return fmt.Errorf("mark appointment paid: %w", err)
			}
		}
		if inserted && p.PatientID != nil && s.points != nil {
			if err := s.points.AwardDollars(ctx, *p.PatientID,
				p.Amount, fmt.Sprintf("Earned from $%s payment", p.Amount.StringFixed(2))); err != nil {
				return fmt.Errorf("award loyalty points: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if inserted && s.recorder != nil {
		_ = s.recorder.Record(ctx, activity.TypePaymentRecorded,
			fmt.Sprintf("Payment of $%s recorded", p.Amount.StringFixed(2)), &p.ID)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Payment, int, error) {
	return s.repo.List(ctx, limit, offset)
}
