package catalog

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

// =========== Service Repository ===========

type serviceRepoPG struct{ pool *pgxpool.Pool }

func NewServiceRepoPG(pool *pgxpool.Pool) ServiceRepository { return &serviceRepoPG{pool: pool} }

const svcCols = `id, name, category, price, duration_minutes, active, created_at, updated_at`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Duration, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *serviceRepoPG) Create(ctx context.Context, s *Service) error {
	s.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO services (id, name, category, price, duration_minutes, active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		s.ID, s.Name, s.Category, s.Price, s.Duration, s.Active).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *serviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	s, err := scanService(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+svcCols+` FROM services WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *serviceRepoPG) Update(ctx context.Context, s *Service) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE services SET name=$2, category=$3, price=$4, duration_minutes=$5, active=$6, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.Category, s.Price, s.Duration, s.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *serviceRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Service, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE active`
	}
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM services`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+svcCols+` FROM services`+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// =========== Room Repository ===========

type roomRepoPG struct{ pool *pgxpool.Pool }

func NewRoomRepoPG(pool *pgxpool.Pool) RoomRepository { return &roomRepoPG{pool: pool} }

func (r *roomRepoPG) Create(ctx context.Context, rm *Room) error {
	rm.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO rooms (id, name, active) VALUES ($1,$2,$3)
		RETURNING created_at`,
		rm.ID, rm.Name, rm.Active).Scan(&rm.CreatedAt)
}

func (r *roomRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	var rm Room
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT id, name, active, created_at FROM rooms WHERE id = $1`, id).
		Scan(&rm.ID, &rm.Name, &rm.Active, &rm.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &rm, err
}

func (r *roomRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Room, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE active`
	}
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM rooms`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name, active, created_at FROM rooms`+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Room
	for rows.Next() {
		var rm Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Active, &rm.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &rm)
	}
	return items, total, rows.Err()
}
