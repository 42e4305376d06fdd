package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type serviceRepoMemory struct {
	mu       sync.RWMutex
	services map[uuid.UUID]*Service
}

// NewServiceRepoMemory returns an in-memory ServiceRepository.
func NewServiceRepoMemory() ServiceRepository {
	return &serviceRepoMemory{services: make(map[uuid.UUID]*Service)}
}

func (r *serviceRepoMemory) Create(_ context.Context, s *Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	cp := *s
	r.services[s.ID] = &cp
	return nil
}

func (r *serviceRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *serviceRepoMemory) Update(_ context.Context, s *Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.services[s.ID]
	if !ok {
		return ErrNotFound
	}
	s.CreatedAt = stored.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	cp := *s
	r.services[s.ID] = &cp
	return nil
}

func (r *serviceRepoMemory) List(_ context.Context, activeOnly bool, limit, offset int) ([]*Service, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Service
	for _, s := range r.services {
		if !activeOnly || s.Active {
			cp := *s
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
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

type roomRepoMemory struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*Room
}

// NewRoomRepoMemory returns an in-memory RoomRepository.
func NewRoomRepoMemory() RoomRepository {
	return &roomRepoMemory{rooms: make(map[uuid.UUID]*Room)}
}

func (r *roomRepoMemory) Create(_ context.Context, rm *Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm.ID = uuid.New()
	rm.CreatedAt = time.Now().UTC()
	cp := *rm
	r.rooms[rm.ID] = &cp
	return nil
}

func (r *roomRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rm
	return &cp, nil
}

func (r *roomRepoMemory) List(_ context.Context, activeOnly bool, limit, offset int) ([]*Room, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Room
	for _, rm := range r.rooms {
		if !activeOnly || rm.Active {
			cp := *rm
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
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
