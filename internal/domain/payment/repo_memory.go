package payment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type repoMemory struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*Payment
	byIntent map[string]uuid.UUID
}

// NewRepoMemory returns an in-memory Repository for the memory backend.
func NewRepoMemory() Repository {
	return &repoMemory{
		payments: make(map[uuid.UUID]*Payment),
		byIntent: make(map[string]uuid.UUID),
	}
}

func (r *repoMemory) Create(_ context.Context, p *Payment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.StripePaymentIntentID != nil {
		if id, ok := r.byIntent[*p.StripePaymentIntentID]; ok {
			stored := r.payments[id]
			stored.Status = p.Status
			stored.TransactionID = p.TransactionID
			*p = *stored
			return false, nil
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	cp := *p
	r.payments[p.ID] = &cp
	if p.StripePaymentIntentID != nil {
		r.byIntent[*p.StripePaymentIntentID] = p.ID
	}
	return true, nil
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *repoMemory) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Payment
	for _, p := range r.payments {
		if p.PatientID != nil && *p.PatientID == patientID {
			cp := *p
			matched = append(matched, &cp)
		}
	}
	return paginate(matched, limit, offset)
}

func (r *repoMemory) List(_ context.Context, limit, offset int) ([]*Payment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]*Payment, 0, len(r.payments))
	for _, p := range r.payments {
		cp := *p
		matched = append(matched, &cp)
	}
	return paginate(matched, limit, offset)
}

func paginate(items []*Payment, limit, offset int) ([]*Payment, int, error) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	total := len(items)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return items[offset:end], total, nil
}
