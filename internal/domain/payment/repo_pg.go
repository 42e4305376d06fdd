package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinichq/clinic-api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `id, patient_id, appointment_id, amount, payment_method, status, date, transaction_id, stripe_payment_intent_id, created_at`

func scan(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.PatientID, &p.AppointmentID, &p.Amount, &p.PaymentMethod,
		&p.Status, &p.Date, &p.TransactionID, &p.StripePaymentIntentID, &p.CreatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Payment) (bool, error) {
	// xmax = 0 distinguishes a fresh insert from a conflict update, so a
	// retried record-payment does not double-run earn-side effects.
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO payments (patient_id, appointment_id, amount, payment_method, status, date, transaction_id, stripe_payment_intent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (stripe_payment_intent_id) WHERE stripe_payment_intent_id IS NOT NULL
		DO UPDATE SET status = EXCLUDED.status, transaction_id = EXCLUDED.transaction_id
		RETURNING id, created_at, (xmax = 0)`,
		p.PatientID, p.AppointmentID, p.Amount, p.PaymentMethod, p.Status, p.Date, p.TransactionID, p.StripePaymentIntentID)
	var inserted bool
	if err := row.Scan(&p.ID, &p.CreatedAt, &inserted); err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	p, err := scan(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cols+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+cols+` FROM payments WHERE patient_id = $1 ORDER BY date DESC, created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	payments, err := collect(rows)
	return payments, total, err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Payment, int, error) {
	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+cols+` FROM payments ORDER BY date DESC, created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	payments, err := collect(rows)
	return payments, total, err
}

func collect(rows pgx.Rows) ([]*Payment, error) {
	var out []*Payment
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
