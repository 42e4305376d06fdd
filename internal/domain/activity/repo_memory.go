package activity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type repoMemory struct {
	mu    sync.RWMutex
	items []*Activity
}

// NewRepoMemory returns an in-memory Repository for the memory backend.
func NewRepoMemory() Repository { return &repoMemory{} }

func (r *repoMemory) Create(_ context.Context, a *Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	r.items = append(r.items, a)
	return nil
}

func (r *repoMemory) list(filter func(*Activity) bool, limit, offset int) ([]*Activity, int) {
	var matched []*Activity
	// newest first
	for i := len(r.items) - 1; i >= 0; i-- {
		if filter(r.items[i]) {
			matched = append(matched, r.items[i])
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total
}

func (r *repoMemory) ListRecent(_ context.Context, limit, offset int) ([]*Activity, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, total := r.list(func(*Activity) bool { return true }, limit, offset)
	return items, total, nil
}

func (r *repoMemory) ListByEntity(_ context.Context, entityID uuid.UUID, limit, offset int) ([]*Activity, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, total := r.list(func(a *Activity) bool {
		return a.EntityID != nil && *a.EntityID == entityID
	}, limit, offset)
	return items, total, nil
}
