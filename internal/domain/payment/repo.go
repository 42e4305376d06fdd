package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists payments. Create upserts on stripe_payment_intent_id so
// a retried record-payment call lands on the row it already wrote; it reports
// whether a new row was inserted so callers can keep one-shot side effects
// from running twice.
type Repository interface {
	Create(ctx context.Context, p *Payment) (inserted bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error)
	List(ctx context.Context, limit, offset int) ([]*Payment, int, error)
}
