package catalog

import (
	"context"

	"github.com/google/uuid"
)

type ServiceRepository interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	Update(ctx context.Context, s *Service) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Service, int, error)
}

type RoomRepository interface {
	Create(ctx context.Context, r *Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*Room, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Room, int, error)
}
