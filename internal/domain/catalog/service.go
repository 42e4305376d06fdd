package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no catalog entry exists for the given id.
var ErrNotFound = errors.New("catalog entry not found")

var validCategories = map[string]bool{
	CategoryService: true,
	CategoryProduct: true,
}

type Catalog struct {
	services ServiceRepository
	rooms    RoomRepository
}

func NewCatalog(services ServiceRepository, rooms RoomRepository) *Catalog {
	return &Catalog{services: services, rooms: rooms}
}

func (c *Catalog) CreateService(ctx context.Context, s *Service) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Category == "" {
		s.Category = CategoryService
	}
	if !validCategories[s.Category] {
		return fmt.Errorf("invalid category: %s", s.Category)
	}
	if s.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	return c.services.Create(ctx, s)
}

func (c *Catalog) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	return c.services.GetByID(ctx, id)
}

func (c *Catalog) UpdateService(ctx context.Context, s *Service) error {
	if s.Category != "" && !validCategories[s.Category] {
		return fmt.Errorf("invalid category: %s", s.Category)
	}
	if s.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	return c.services.Update(ctx, s)
}

func (c *Catalog) ListServices(ctx context.Context, activeOnly bool, limit, offset int) ([]*Service, int, error) {
	return c.services.List(ctx, activeOnly, limit, offset)
}

func (c *Catalog) CreateRoom(ctx context.Context, r *Room) error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return c.rooms.Create(ctx, r)
}

func (c *Catalog) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	return c.rooms.GetByID(ctx, id)
}

func (c *Catalog) ListRooms(ctx context.Context, activeOnly bool, limit, offset int) ([]*Room, int, error) {
	return c.rooms.List(ctx, activeOnly, limit, offset)
}
