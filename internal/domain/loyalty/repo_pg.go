package loyalty

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

func (r *repoPG) GetAccount(ctx context.Context, patientID uuid.UUID) (*Account, error) {
	var a Account
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, patient_id, points, total_earned, monthly_points_earned, level, referrals_count, created_at, updated_at
		FROM loyalty_points WHERE patient_id = $1`, patientID).
		Scan(&a.ID, &a.PatientID, &a.Points, &a.TotalEarned, &a.MonthlyPointsEarned, &a.Level, &a.ReferralsCount, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) SaveAccount(ctx context.Context, a *Account) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO loyalty_points (patient_id, points, total_earned, monthly_points_earned, level, referrals_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (patient_id) DO UPDATE SET
			points = EXCLUDED.points,
			total_earned = EXCLUDED.total_earned,
			monthly_points_earned = EXCLUDED.monthly_points_earned,
			level = EXCLUDED.level,
			referrals_count = EXCLUDED.referrals_count,
			updated_at = now()
		RETURNING id, created_at, updated_at`,
		a.PatientID, a.Points, a.TotalEarned, a.MonthlyPointsEarned, a.Level, a.ReferralsCount).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) AppendTransaction(ctx context.Context, tx *Transaction) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO loyalty_transactions (patient_id, points, type, source, description, dollars_spent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		tx.PatientID, tx.Points, tx.Type, tx.Source, tx.Description, tx.DollarsSpent).
		Scan(&tx.ID, &tx.CreatedAt)
}

func (r *repoPG) ListTransactions(ctx context.Context, patientID uuid.UUID, limit int) ([]*Transaction, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, patient_id, points, type, source, description, dollars_spent, created_at
		FROM loyalty_transactions WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.PatientID, &tx.Points, &tx.Type, &tx.Source, &tx.Description, &tx.DollarsSpent, &tx.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &tx)
	}
	return out, rows.Err()
}

const subCols = `id, patient_id, plan_type, monthly_fee, included_sessions, includes_reiki, includes_pet_add_on, status, start_date, next_billing_date, cancel_reason, created_at`

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.PatientID, &s.PlanType, &s.MonthlyFee, &s.IncludedSessions,
		&s.IncludesReiki, &s.IncludesPetAddOn, &s.Status, &s.StartDate, &s.NextBillingDate, &s.CancelReason, &s.CreatedAt)
	return &s, err
}

func (r *repoPG) CreateSubscription(ctx context.Context, sub *Subscription) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO loyalty_subscriptions (patient_id, plan_type, monthly_fee, included_sessions, includes_reiki, includes_pet_add_on, status, start_date, next_billing_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		sub.PatientID, sub.PlanType, sub.MonthlyFee, sub.IncludedSessions, sub.IncludesReiki,
		sub.IncludesPetAddOn, sub.Status, sub.StartDate, sub.NextBillingDate).
		Scan(&sub.ID, &sub.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateSubscription
	}
	return err
}

func (r *repoPG) GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	s, err := scanSubscription(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+subCols+` FROM loyalty_subscriptions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) ActiveSubscription(ctx context.Context, patientID uuid.UUID) (*Subscription, error) {
	s, err := scanSubscription(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+subCols+` FROM loyalty_subscriptions WHERE patient_id = $1 AND status = 'active'`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) UpdateSubscription(ctx context.Context, sub *Subscription) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE loyalty_subscriptions SET status = $2, cancel_reason = $3 WHERE id = $1`,
		sub.ID, sub.Status, sub.CancelReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
