package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/eventbus"
	"github.com/an4xdev/SprintForge/internal/taskhistory"
	"github.com/an4xdev/SprintForge/pkg/cerr"
	"github.com/an4xdev/SprintForge/pkg/clog"
)

const maxTransitionAttempts = 3

var errVersionConflict = errors.New("task version changed during transition")

var targetEvents = map[Target]eventbus.Kind{
	TargetStarted: eventbus.KindTaskStarted,
	TargetPaused:  eventbus.KindTaskPaused,
	TargetStopped: eventbus.KindTaskStopped,
}

type transitionPayload struct {
	TaskID    uuid.UUID `json:"taskId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ChangedAt time.Time `json:"changedAt"`
}

// Transition moves a task into target. The history row and the status
// pointer are written in one transaction; notifications go out only after
// it commits and never affect the result.
func (s *Service) Transition(ctx context.Context, taskID uuid.UUID, target Target) (*TransitionResult, error) {
	if !slices.Contains(allTargets, target) {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown target status %q", target), nil)
	}
	clog.AddTaskID(ctx, taskID.String())

	var entry *taskhistory.Entry
	for attempt := 1; ; attempt++ {
		var err error
		entry, err = s.transitionOnce(ctx, taskID, target)
		if err == nil {
			break
		}
		if !errors.Is(err, errVersionConflict) {
			return nil, err
		}
		if attempt == maxTransitionAttempts {
			return nil, cerr.NewError(cerr.Aborted, "task was modified concurrently, try again", err)
		}
		slog.WarnContext(ctx, "retrying task transition", "task_id", taskID, "attempt", attempt)
	}

	old, _ := entry.OldStatus()
	s.notifier.Notify(ctx, targetEvents[target], taskID.String(), transitionPayload{
		TaskID:    taskID,
		OldStatus: old,
		NewStatus: entry.NewStatus,
		ChangedAt: entry.ChangedAt,
	})
	s.notifier.Audit(ctx, "UPDATE", "Task", fmt.Sprintf("Task %s status changed from %s to %s", taskID, old, entry.NewStatus))

	return &TransitionResult{Status: entry.NewStatus, TaskID: taskID}, nil
}

func (s *Service) transitionOnce(ctx context.Context, taskID uuid.UUID, target Target) (*taskhistory.Entry, error) {
	var entry *taskhistory.Entry
	err := s.repo.InTx(ctx, func(tx Tx) error {
		t, err := tx.LockTask(ctx, taskID)
		if err != nil {
			return err
		}
		current, err := tx.Status(ctx, t.StatusID)
		if cerr.IsCode(err, cerr.NotFound) {
			return cerr.NewError(cerr.Internal, "server error",
				fmt.Errorf("invariant violation: task %s points at missing status %d: %w", taskID, t.StatusID, err))
		}
		if err != nil {
			return err
		}
		if !CanTransition(current.Name, target) {
			return cerr.NewError(cerr.FailedPrecondition,
				fmt.Sprintf("cannot move task from %s to %s", current.Name, target), nil)
		}

		tail, err := tx.HistoryTail(ctx, taskID)
		if err != nil {
			return err
		}
		next, err := s.provisionedStatus(ctx, tx.StatusByName, string(target))
		if err != nil {
			return err
		}

		entry = taskhistory.Derive(taskID, s.now(), next.Name, tail, current.Name)
		if err := tx.AppendHistory(ctx, entry); err != nil {
			return err
		}
		swapped, err := tx.SwapStatus(ctx, taskID, next.ID, t.Version, entry.ChangedAt)
		if err != nil {
			return err
		}
		if !swapped {
			return errVersionConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
