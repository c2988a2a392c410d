package task

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/taskhistory"
)

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]*Task, error)
	TaskTypeExists(ctx context.Context, id int) (bool, error)

	Statuses(ctx context.Context) ([]*Status, error)
	Status(ctx context.Context, id int) (*Status, error)
	StatusByName(ctx context.Context, name string) (*Status, error)

	// InTx runs fn in one transaction. The transaction commits only when fn
	// returns nil.
	InTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the view of the store a status transition works against.
type Tx interface {
	// LockTask loads the task and, where the database supports it, holds a
	// row lock on it until the transaction ends.
	LockTask(ctx context.Context, id uuid.UUID) (*Task, error)
	Status(ctx context.Context, id int) (*Status, error)
	StatusByName(ctx context.Context, name string) (*Status, error)
	// HistoryTail returns nil when the task has no history.
	HistoryTail(ctx context.Context, taskID uuid.UUID) (*taskhistory.Entry, error)
	AppendHistory(ctx context.Context, e *taskhistory.Entry) error
	// SwapStatus moves the status pointer only if the task is still at
	// expectedVersion. It reports false when another writer got there first.
	SwapStatus(ctx context.Context, taskID uuid.UUID, statusID int, expectedVersion int64, at time.Time) (bool, error)
}
