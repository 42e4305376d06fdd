package patient

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type repoMemory struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]*Patient
}

// NewRepoMemory returns an in-memory Repository for the memory backend.
func NewRepoMemory() Repository {
	return &repoMemory{patients: make(map[uuid.UUID]*Patient)}
}

func (r *repoMemory) Create(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *repoMemory) Update(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.patients[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *repoMemory) List(_ context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Patient
	needle := strings.ToLower(search)
	for _, p := range r.patients {
		if search == "" ||
			strings.Contains(strings.ToLower(p.FirstName), needle) ||
			strings.Contains(strings.ToLower(p.LastName), needle) {
			cp := *p
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].LastName != matched[j].LastName {
			return matched[i].LastName < matched[j].LastName
		}
		return matched[i].FirstName < matched[j].FirstName
	})
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}
