package kvstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgStore struct{ pool *pgxpool.Pool }

// NewPGStore returns a Store backed by the user_preferences table.
func NewPGStore(pool *pgxpool.Pool) Store { return &pgStore{pool: pool} }

func (s *pgStore) Get(ctx context.Context, userID, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM user_preferences WHERE user_id = $1 AND key = $2`,
		userID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

func (s *pgStore) Put(ctx context.Context, userID, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_preferences (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, key) DO UPDATE SET value = $3, updated_at = NOW()`,
		userID, key, value)
	return err
}

func (s *pgStore) Delete(ctx context.Context, userID, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM user_preferences WHERE user_id = $1 AND key = $2`, userID, key)
	return err
}
