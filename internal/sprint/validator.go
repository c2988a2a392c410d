package sprint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/project"
	"github.com/an4xdev/SprintForge/internal/team"
	"github.com/an4xdev/SprintForge/internal/user"
	"github.com/an4xdev/SprintForge/pkg/cerr"
)

// Validator checks sprint input against the directory before anything is
// written. Checks run in a fixed order and stop at the first failure.
type Validator struct {
	users    user.Repository
	teams    team.Repository
	projects project.Repository
	now      func() time.Time
}

func NewValidator(users user.Repository, teams team.Repository, projects project.Repository, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{users: users, teams: teams, projects: projects, now: now}
}

func (v *Validator) ValidateCreate(ctx context.Context, d Draft) error {
	if err := v.checkManager(ctx, d.ManagerID); err != nil {
		return err
	}
	if _, err := v.teams.Get(ctx, d.TeamID); err != nil {
		return err
	}
	if _, err := v.projects.Get(ctx, d.ProjectID); err != nil {
		return err
	}
	if err := checkOrder(d.StartDate, d.EndDate); err != nil {
		return err
	}
	today := DateOf(v.now())
	if d.StartDate.Before(today.Time) {
		return cerr.NewError(cerr.InvalidArgument, "start date cannot be in the past", nil)
	}
	if d.EndDate.Before(today.Time) {
		return cerr.NewError(cerr.InvalidArgument, "end date cannot be in the past", nil)
	}
	return checkName(d.Name)
}

// ValidateUpdate checks only what the patch changes. Dates are compared
// after merging with current. The past-date rule applies to creation only,
// so a running sprint can still be renamed.
func (v *Validator) ValidateUpdate(ctx context.Context, current *Sprint, p Patch) error {
	if p.ManagerID != nil {
		if err := v.checkManager(ctx, *p.ManagerID); err != nil {
			return err
		}
	}
	if p.TeamID != nil {
		if _, err := v.teams.Get(ctx, *p.TeamID); err != nil {
			return err
		}
	}
	if p.ProjectID != nil {
		if _, err := v.projects.Get(ctx, *p.ProjectID); err != nil {
			return err
		}
	}
	if p.touchesDates() {
		merged := current.Apply(p)
		if err := checkOrder(merged.StartDate, merged.EndDate); err != nil {
			return err
		}
	}
	if p.Name != nil {
		return checkName(*p.Name)
	}
	return nil
}

func (v *Validator) checkManager(ctx context.Context, id uuid.UUID) error {
	u, err := v.users.Get(ctx, id)
	if cerr.IsCode(err, cerr.NotFound) {
		return cerr.NewError(cerr.NotFound, "manager not found", err)
	}
	if err != nil {
		return err
	}
	if !u.IsManager() {
		return cerr.NewError(cerr.PermissionDenied, fmt.Sprintf("user %s is not a manager", u.Username), nil)
	}
	return nil
}

func checkOrder(start, end Date) error {
	if !start.Before(end.Time) {
		return cerr.NewError(cerr.InvalidArgument, "start date must be before end date", nil)
	}
	return nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return cerr.NewError(cerr.InvalidArgument, "name is required", nil)
	}
	return nil
}
