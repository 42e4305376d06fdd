package loyalty

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type repoMemory struct {
	mu            sync.RWMutex
	accounts      map[uuid.UUID]*Account
	transactions  []*Transaction
	subscriptions map[uuid.UUID]*Subscription
}

// NewRepoMemory returns an in-memory Repository for the memory backend.
func NewRepoMemory() Repository {
	return &repoMemory{
		accounts:      make(map[uuid.UUID]*Account),
		subscriptions: make(map[uuid.UUID]*Subscription),
	}
}

func (r *repoMemory) GetAccount(_ context.Context, patientID uuid.UUID) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[patientID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *repoMemory) SaveAccount(_ context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if stored, ok := r.accounts[a.PatientID]; ok {
		a.ID = stored.ID
		a.CreatedAt = stored.CreatedAt
	} else {
		a.ID = uuid.New()
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	cp := *a
	r.accounts[a.PatientID] = &cp
	return nil
}

func (r *repoMemory) AppendTransaction(_ context.Context, tx *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now().UTC()
	cp := *tx
	r.transactions = append(r.transactions, &cp)
	return nil
}

func (r *repoMemory) ListTransactions(_ context.Context, patientID uuid.UUID, limit int) ([]*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		tx := r.transactions[i]
		if tx.PatientID != patientID {
			continue
		}
		cp := *tx
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *repoMemory) CreateSubscription(_ context.Context, sub *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subscriptions {
		if s.PatientID == sub.PatientID && s.Status == SubscriptionActive {
			return ErrDuplicateSubscription
		}
	}
	sub.ID = uuid.New()
	sub.CreatedAt = time.Now().UTC()
	cp := *sub
	r.subscriptions[sub.ID] = &cp
	return nil
}

func (r *repoMemory) GetSubscription(_ context.Context, id uuid.UUID) (*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subscriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *repoMemory) ActiveSubscription(_ context.Context, patientID uuid.UUID) (*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subscriptions {
		if s.PatientID == patientID && s.Status == SubscriptionActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *repoMemory) UpdateSubscription(_ context.Context, sub *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.subscriptions[sub.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = sub.Status
	stored.CancelReason = sub.CancelReason
	return nil
}
