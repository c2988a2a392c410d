package taskhistory

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// ListByTask returns the entries of one task, oldest first.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Entry, error)
	List(ctx context.Context) ([]*Entry, error)
}
