package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no value exists for the user/key pair.
var ErrNotFound = errors.New("preference not found")

// Store persists small per-user preference blobs (dashboard layout, sticky
// notes) that the clients previously kept in local storage.
type Store interface {
	Get(ctx context.Context, userID, key string) (string, error)
	Put(ctx context.Context, userID, key, value string) error
	Delete(ctx context.Context, userID, key string) error
}
