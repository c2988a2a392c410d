package task

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/taskhistory"
)

// Replay folds a task's history, oldest first, into its working time.
// Started opens an interval, or restarts it if one is already open.
// Paused and Stopped close the open interval. An interval still open at
// the end counts up to now, so repeated calls on a running task never
// decrease.
func Replay(entries []*taskhistory.Entry, now time.Time) Accrual {
	var (
		total   time.Duration
		start   *time.Time
		current string
	)
	for _, e := range entries {
		current = e.NewStatus
		switch e.NewStatus {
		case StatusStarted:
			at := e.ChangedAt
			start = &at
		case StatusPaused, StatusStopped:
			if start != nil {
				total += positive(e.ChangedAt.Sub(*start))
				start = nil
			}
		}
	}

	a := Accrual{CurrentStatus: current}
	if start != nil {
		total += positive(now.Sub(*start))
		a.IsRunning = true
		a.CurrentSessionStart = start
	}
	a.TotalSeconds = int64(total / time.Second)
	return a
}

func positive(d time.Duration) time.Duration {
	return max(d, 0)
}

// TotalActiveSeconds reports how long a task has been worked on. A task
// without history reports zero and its current status.
func (s *Service) TotalActiveSeconds(ctx context.Context, taskID uuid.UUID) (*TaskTime, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.accrue(ctx, t)
}

// ForDeveloper reports the working time of every task assigned to a
// developer.
func (s *Service) ForDeveloper(ctx context.Context, developerID uuid.UUID) ([]*TaskTime, error) {
	tasks, err := s.ListByDeveloper(ctx, developerID)
	if err != nil {
		return nil, err
	}
	times := make([]*TaskTime, 0, len(tasks))
	for _, t := range tasks {
		tt, err := s.accrue(ctx, t)
		if err != nil {
			return nil, err
		}
		times = append(times, tt)
	}
	return times, nil
}

func (s *Service) accrue(ctx context.Context, t *Task) (*TaskTime, error) {
	entries, err := s.history.ListByTask(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	a := Replay(entries, s.now().UTC())
	if len(entries) == 0 {
		st, err := s.repo.Status(ctx, t.StatusID)
		if err != nil {
			return nil, err
		}
		a.CurrentStatus = st.Name
	}
	return &TaskTime{TaskID: t.ID, TaskName: t.Name, Accrual: a}, nil
}
