package taskhistory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one status change of a task. Entries are append-only and ordered
// by ChangedAt within a task.
type Entry struct {
	ID        uuid.UUID
	TaskID    uuid.UUID
	ChangedAt time.Time
	NewStatus string

	// oldStatus is always derived from the log, never taken from a caller.
	// It is nil only for rows imported without one.
	oldStatus *string
}

// Derive builds the entry that follows prev. When the task has no history
// yet, prev is nil and the task's current status name is used as the old
// status. ChangedAt is truncated to microseconds and forced strictly past
// the tail so the log never contains two entries with the same timestamp.
func Derive(taskID uuid.UUID, at time.Time, newStatus string, prev *Entry, currentStatus string) *Entry {
	at = at.UTC().Truncate(time.Microsecond)
	old := currentStatus
	if prev != nil {
		old = prev.NewStatus
		if !at.After(prev.ChangedAt) {
			at = prev.ChangedAt.UTC().Add(time.Microsecond)
		}
	}
	return &Entry{
		ID:        uuid.New(),
		TaskID:    taskID,
		ChangedAt: at,
		NewStatus: newStatus,
		oldStatus: &old,
	}
}

// Restore rehydrates a stored entry.
func Restore(id, taskID uuid.UUID, changedAt time.Time, newStatus string, oldStatus *string) *Entry {
	return &Entry{
		ID:        id,
		TaskID:    taskID,
		ChangedAt: changedAt.UTC(),
		NewStatus: newStatus,
		oldStatus: oldStatus,
	}
}

func (e *Entry) OldStatus() (string, bool) {
	if e.oldStatus == nil {
		return "", false
	}
	return *e.oldStatus, true
}

func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         uuid.UUID `json:"id"`
		TaskID     uuid.UUID `json:"taskId"`
		ChangeDate time.Time `json:"changeDate"`
		OldStatus  *string   `json:"oldStatus"`
		NewStatus  string    `json:"newStatus"`
	}{
		ID:         e.ID,
		TaskID:     e.TaskID,
		ChangeDate: e.ChangedAt,
		OldStatus:  e.oldStatus,
		NewStatus:  e.NewStatus,
	})
}
