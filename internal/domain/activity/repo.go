package activity

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Activity) error
	ListRecent(ctx context.Context, limit, offset int) ([]*Activity, int, error)
	ListByEntity(ctx context.Context, entityID uuid.UUID, limit, offset int) ([]*Activity, int, error)
}

// Recorder is the narrow write-side interface other domain services depend
// on, so they stay decoupled from activity storage.
type Recorder interface {
	Record(ctx context.Context, typ, description string, entityID *uuid.UUID) error
}
