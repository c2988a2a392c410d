package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/eventbus"
	"github.com/an4xdev/SprintForge/internal/sprint"
	"github.com/an4xdev/SprintForge/internal/taskhistory"
	"github.com/an4xdev/SprintForge/internal/user"
	"github.com/an4xdev/SprintForge/pkg/cerr"
)

// Notifier receives best-effort notifications after a change has been
// committed. Implementations must not block and cannot fail the caller.
type Notifier interface {
	Notify(ctx context.Context, kind eventbus.Kind, resourceID string, payload any)
	Audit(ctx context.Context, action, entity, description string)
}

type Service struct {
	repo     Repository
	history  taskhistory.Repository
	users    user.Repository
	sprints  sprint.Repository
	notifier Notifier
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	repo Repository,
	history taskhistory.Repository,
	users user.Repository,
	sprints sprint.Repository,
	notifier Notifier,
	opts ...Option,
) *Service {
	s := &Service{
		repo:     repo,
		history:  history,
		users:    users,
		sprints:  sprints,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, d Draft) (*Task, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "name is required", nil)
	}
	if d.TaskTypeID <= 0 {
		return nil, cerr.NewError(cerr.InvalidArgument, "taskTypeId is required", nil)
	}
	ok, err := s.repo.TaskTypeExists(ctx, d.TaskTypeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "task type not found", nil)
	}

	statusName := StatusCreated
	if d.DeveloperID != nil {
		if _, err := s.users.Get(ctx, *d.DeveloperID); err != nil {
			return nil, err
		}
		statusName = StatusAssigned
	}
	if d.SprintID != nil {
		if _, err := s.sprints.Get(ctx, *d.SprintID); err != nil {
			return nil, err
		}
	}
	status, err := s.provisionedStatus(ctx, s.repo.StatusByName, statusName)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &Task{
		ID:          uuid.New(),
		Name:        name,
		Description: d.Description,
		TaskTypeID:  d.TaskTypeID,
		StatusID:    status.ID,
		DeveloperID: d.DeveloperID,
		SprintID:    d.SprintID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "task created", "task_id", t.ID, "status", statusName)
	s.notifier.Notify(ctx, eventbus.KindTaskCreated, t.ID.String(), t)
	s.notifier.Audit(ctx, "CREATE", "Task", fmt.Sprintf("Task %s created with status %s", t.ID, statusName))
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]*Task, error) {
	if _, err := s.users.Get(ctx, developerID); err != nil {
		return nil, err
	}
	return s.repo.ListByDeveloper(ctx, developerID)
}

func (s *Service) Statuses(ctx context.Context) ([]*Status, error) {
	return s.repo.Statuses(ctx)
}

// provisionedStatus resolves a status that the seed data must contain. A
// missing row is a broken deployment, not a client error.
func (s *Service) provisionedStatus(ctx context.Context, lookup func(context.Context, string) (*Status, error), name string) (*Status, error) {
	st, err := lookup(ctx, name)
	if cerr.IsCode(err, cerr.NotFound) {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("status %q is not provisioned: %w", name, err))
	}
	return st, err
}
