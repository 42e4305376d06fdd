package loyalty

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists loyalty accounts, their transaction ledger, and
// subscriptions. SaveAccount upserts on patient_id. CreateSubscription
// returns ErrDuplicateSubscription when the patient already has an active
// one; the postgres backend enforces this with a partial unique index, so
// two concurrent subscribe calls cannot both land.
type Repository interface {
	GetAccount(ctx context.Context, patientID uuid.UUID) (*Account, error)
	SaveAccount(ctx context.Context, a *Account) error
	AppendTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, patientID uuid.UUID, limit int) ([]*Transaction, error)
	CreateSubscription(ctx context.Context, sub *Subscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)
	ActiveSubscription(ctx context.Context, patientID uuid.UUID) (*Subscription, error)
	UpdateSubscription(ctx context.Context, sub *Subscription) error
}
