package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	TaskTypeID  int        `json:"taskTypeId"`
	StatusID    int        `json:"taskStatusId"`
	DeveloperID *uuid.UUID `json:"developerId"`
	SprintID    *uuid.UUID `json:"sprintId"`
	// Version is bumped on every status change and guards it against
	// concurrent writers.
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Draft is the input for creating a task.
type Draft struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	TaskTypeID  int        `json:"taskTypeId"`
	DeveloperID *uuid.UUID `json:"developerId"`
	SprintID    *uuid.UUID `json:"sprintId"`
}

type TransitionResult struct {
	Status string    `json:"status"`
	TaskID uuid.UUID `json:"taskId"`
}

// Accrual is the working time derived from a task's history.
type Accrual struct {
	TotalSeconds        int64      `json:"totalSeconds"`
	IsRunning           bool       `json:"isRunning"`
	CurrentStatus       string     `json:"currentStatus"`
	CurrentSessionStart *time.Time `json:"currentSessionStart"`
}

type TaskTime struct {
	TaskID   uuid.UUID `json:"taskId"`
	TaskName string    `json:"taskName"`
	Accrual
}
