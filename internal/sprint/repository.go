package sprint

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Sprint) error
	Get(ctx context.Context, id uuid.UUID) (*Sprint, error)
	List(ctx context.Context) ([]*Sprint, error)
	ListByManager(ctx context.Context, managerID uuid.UUID) ([]*Sprint, error)
	// LatestByManager returns the manager's sprint with the latest start date.
	LatestByManager(ctx context.Context, managerID uuid.UUID) (*Sprint, error)
	Update(ctx context.Context, s *Sprint) error
	Delete(ctx context.Context, id uuid.UUID) error
}
