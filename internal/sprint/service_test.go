package sprint_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/an4xdev/SprintForge/internal/eventbus"
	projectrepo "github.com/an4xdev/SprintForge/internal/project/repositoryimpl"
	"github.com/an4xdev/SprintForge/internal/sprint"
	sprintrepo "github.com/an4xdev/SprintForge/internal/sprint/repositoryimpl"
	teamrepo "github.com/an4xdev/SprintForge/internal/team/repositoryimpl"
	"github.com/an4xdev/SprintForge/internal/testutil"
	userrepo "github.com/an4xdev/SprintForge/internal/user/repositoryimpl"
	"github.com/an4xdev/SprintForge/pkg/cerr"
)

type serviceFixture struct {
	*fixture
	service  *sprint.Service
	notifier *testutil.Notifier
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		validator: sprint.NewValidator(
			userrepo.NewSQLRepository(db.DB),
			teamrepo.NewSQLRepository(db.DB),
			projectrepo.NewSQLRepository(db.DB),
			func() time.Time { return today },
		),
		manager:   testutil.InsertUser(t, db, "maria", "manager"),
		developer: testutil.InsertUser(t, db, "dan", "developer"),
		team:      testutil.InsertTeam(t, db, "core"),
		project:   testutil.InsertProject(t, db, "forge"),
	}
	n := &testutil.Notifier{}
	return &serviceFixture{
		fixture:  f,
		service:  sprint.NewService(sprintrepo.NewSQLRepository(db.DB), f.validator, n),
		notifier: n,
	}
}

func TestServiceLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, f.draft())
	require.NoError(t, err)

	later := f.draft()
	later.Name = "Sprint 2"
	later.StartDate = sprint.NewDate(2025, 6, 25)
	later.EndDate = sprint.NewDate(2025, 7, 8)
	second, err := f.service.Create(ctx, later)
	require.NoError(t, err)

	got, err := f.service.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	all, err := f.service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.service.ListByManager(ctx, f.manager)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	latest, err := f.service.LatestByManager(ctx, f.manager)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	_, err = f.service.LatestByManager(ctx, f.developer)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	name := "Sprint 1 (extended)"
	updated, err := f.service.Update(ctx, first.ID, sprint.Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, first.StartDate, updated.StartDate)

	require.NoError(t, f.service.Delete(ctx, first.ID))
	_, err = f.service.Get(ctx, first.ID)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	assert.True(t, cerr.IsCode(f.service.Delete(ctx, first.ID), cerr.NotFound))

	var kinds []eventbus.Kind
	for _, n := range f.notifier.Notifications() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []eventbus.Kind{
		eventbus.KindSprintCreated,
		eventbus.KindSprintCreated,
		eventbus.KindSprintUpdated,
		eventbus.KindSprintDeleted,
	}, kinds)
	assert.Len(t, f.notifier.Audits(), 4)
}

func TestServiceCreateRejectsBeforeWriting(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	d := f.draft()
	d.ManagerID = f.developer
	_, err := f.service.Create(ctx, d)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))

	all, err := f.service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.notifier.Notifications())
}

func TestServiceUpdateUnknownSprint(t *testing.T) {
	f := newServiceFixture(t)
	name := "x"
	_, err := f.service.Update(context.Background(), uuid.New(), sprint.Patch{Name: &name})
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}
