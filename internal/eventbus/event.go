package eventbus

import (
	"encoding/json"
	"strings"
	"time"
)

type Kind string

const (
	KindTaskCreated   Kind = "task_created"
	KindTaskStarted   Kind = "task_started"
	KindTaskPaused    Kind = "task_paused"
	KindTaskStopped   Kind = "task_stopped"
	KindSprintCreated Kind = "sprint_created"
	KindSprintUpdated Kind = "sprint_updated"
	KindSprintDeleted Kind = "sprint_deleted"
	KindAudit         Kind = "audit"
)

// IsTask reports whether the kind describes a task lifecycle change.
func (k Kind) IsTask() bool {
	return strings.HasPrefix(string(k), "task_")
}

// Event is a notification about something that already happened in the
// system of record. Losing one never affects stored state.
type Event struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	ResourceID string          `json:"resourceId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Audit      *AuditEntry     `json:"audit,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AuditEntry is the message sent to the audit exchange.
type AuditEntry struct {
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Service     string    `json:"service" yaml:"service"`
	Action      string    `json:"action" yaml:"action"`
	Entity      string    `json:"entity" yaml:"entity"`
	Description string    `json:"description" yaml:"description"`
}

func (e *Event) IsAudit() bool {
	return e.Kind == KindAudit && e.Audit != nil
}
