package sprint

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/eventbus"
)

// Notifier receives best-effort notifications after a change has been
// committed.
type Notifier interface {
	Notify(ctx context.Context, kind eventbus.Kind, resourceID string, payload any)
	Audit(ctx context.Context, action, entity, description string)
}

type Service struct {
	repo      Repository
	validator *Validator
	notifier  Notifier
}

func NewService(repo Repository, validator *Validator, notifier Notifier) *Service {
	return &Service{repo: repo, validator: validator, notifier: notifier}
}

func (s *Service) Create(ctx context.Context, d Draft) (*Sprint, error) {
	if err := s.validator.ValidateCreate(ctx, d); err != nil {
		return nil, err
	}
	sp := &Sprint{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(d.Name),
		StartDate: d.StartDate,
		EndDate:   d.EndDate,
		ManagerID: d.ManagerID,
		TeamID:    d.TeamID,
		ProjectID: d.ProjectID,
	}
	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "sprint created", "sprint_id", sp.ID, "manager_id", sp.ManagerID)
	s.notifier.Notify(ctx, eventbus.KindSprintCreated, sp.ID.String(), sp)
	s.notifier.Audit(ctx, "CREATE", "Sprint", fmt.Sprintf("Sprint %s created", sp.ID))
	return sp, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (*Sprint, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUpdate(ctx, current, p); err != nil {
		return nil, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}
	updated := current.Apply(p)
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, eventbus.KindSprintUpdated, id.String(), updated)
	s.notifier.Audit(ctx, "UPDATE", "Sprint", fmt.Sprintf("Sprint %s updated", id))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notifier.Notify(ctx, eventbus.KindSprintDeleted, id.String(), nil)
	s.notifier.Audit(ctx, "DELETE", "Sprint", fmt.Sprintf("Sprint %s deleted", id))
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Sprint, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Sprint, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByManager(ctx context.Context, managerID uuid.UUID) ([]*Sprint, error) {
	return s.repo.ListByManager(ctx, managerID)
}

func (s *Service) LatestByManager(ctx context.Context, managerID uuid.UUID) (*Sprint, error) {
	return s.repo.LatestByManager(ctx, managerID)
}
