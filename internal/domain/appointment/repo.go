package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	// SetStatus persists a status transition without touching other fields.
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	// SetPaid marks the appointment paid with the amount and method of the
	// completed payment. Called by the payment service inside its transaction.
	SetPaid(ctx context.Context, id uuid.UUID, amount decimal.Decimal, method string) error
	ListByDate(ctx context.Context, date time.Time, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}
