package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type repoMemory struct {
	mu    sync.RWMutex
	appts map[uuid.UUID]*Appointment
}

// NewRepoMemory returns an in-memory Repository for the memory backend.
func NewRepoMemory() Repository {
	return &repoMemory{appts: make(map[uuid.UUID]*Appointment)}
}

func (r *repoMemory) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *repoMemory) Update(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.appts[a.ID]
	if !ok {
		return ErrNotFound
	}
	stored.PatientID = a.PatientID
	stored.ServiceID = a.ServiceID
	stored.RoomID = a.RoomID
	stored.Date = a.Date
	stored.Time = a.Time
	stored.Duration = a.Duration
	stored.Notes = a.Notes
	stored.UpdatedAt = time.Now().UTC()
	cp := *stored
	*a = cp
	return nil
}

func (r *repoMemory) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *repoMemory) SetPaid(_ context.Context, id uuid.UUID, amount decimal.Decimal, method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.PaymentStatus = PaymentPaid
	a.PaymentAmount = &amount
	a.PaymentMethod = &method
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *repoMemory) ListByDate(_ context.Context, date time.Time, limit, offset int) ([]*Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Appointment
	for _, a := range r.appts {
		if a.Date.Equal(date) {
			cp := *a
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Time < matched[j].Time })
	return paginate(matched, limit, offset)
}

func (r *repoMemory) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Appointment
	for _, a := range r.appts {
		if a.PatientID != nil && *a.PatientID == patientID {
			cp := *a
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].Time > matched[j].Time
	})
	return paginate(matched, limit, offset)
}

func paginate(items []*Appointment, limit, offset int) ([]*Appointment, int, error) {
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
