package sprint

import "github.com/google/uuid"

type Sprint struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartDate Date      `json:"startDate"`
	EndDate   Date      `json:"endDate"`
	ManagerID uuid.UUID `json:"managerId"`
	TeamID    uuid.UUID `json:"teamId"`
	ProjectID uuid.UUID `json:"projectId"`
}

// Draft is the input for creating a sprint.
type Draft struct {
	Name      string    `json:"name"`
	StartDate Date      `json:"startDate"`
	EndDate   Date      `json:"endDate"`
	ManagerID uuid.UUID `json:"managerId"`
	TeamID    uuid.UUID `json:"teamId"`
	ProjectID uuid.UUID `json:"projectId"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name      *string    `json:"name"`
	StartDate *Date      `json:"startDate"`
	EndDate   *Date      `json:"endDate"`
	ManagerID *uuid.UUID `json:"managerId"`
	TeamID    *uuid.UUID `json:"teamId"`
	ProjectID *uuid.UUID `json:"projectId"`
}

func (p Patch) touchesDates() bool {
	return p.StartDate != nil || p.EndDate != nil
}

// Apply returns a copy of s with the patch fields set.
func (s Sprint) Apply(p Patch) *Sprint {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.StartDate != nil {
		s.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		s.EndDate = *p.EndDate
	}
	if p.ManagerID != nil {
		s.ManagerID = *p.ManagerID
	}
	if p.TeamID != nil {
		s.TeamID = *p.TeamID
	}
	if p.ProjectID != nil {
		s.ProjectID = *p.ProjectID
	}
	return &s
}
