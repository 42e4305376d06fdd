package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one activity entry. Implements Recorder.
func (s *Service) Record(ctx context.Context, typ, description string, entityID *uuid.UUID) error {
	if typ == "" {
		return fmt.Errorf("activity type is required")
	}
	return s.repo.Create(ctx, &Activity{Type: typ, Description: description, EntityID: entityID})
}

func (s *Service) ListRecent(ctx context.Context, limit, offset int) ([]*Activity, int, error) {
	return s.repo.ListRecent(ctx, limit, offset)
}

func (s *Service) ListByEntity(ctx context.Context, entityID uuid.UUID, limit, offset int) ([]*Activity, int, error) {
	return s.repo.ListByEntity(ctx, entityID, limit, offset)
}
