package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "github.com/an4xdev/SprintForge/internal"
	"github.com/an4xdev/SprintForge/internal/config"
	"github.com/an4xdev/SprintForge/internal/eventbus"
	"github.com/an4xdev/SprintForge/internal/live"
	projectrepo "github.com/an4xdev/SprintForge/internal/project/repositoryimpl"
	"github.com/an4xdev/SprintForge/internal/sprint"
	sprintrepo "github.com/an4xdev/SprintForge/internal/sprint/repositoryimpl"
	"github.com/an4xdev/SprintForge/internal/task"
	taskrepo "github.com/an4xdev/SprintForge/internal/task/repositoryimpl"
	"github.com/an4xdev/SprintForge/internal/taskhistory"
	historyrepo "github.com/an4xdev/SprintForge/internal/taskhistory/repositoryimpl"
	teamrepo "github.com/an4xdev/SprintForge/internal/team/repositoryimpl"
	"github.com/an4xdev/SprintForge/internal/testutil"
	userrepo "github.com/an4xdev/SprintForge/internal/user/repositoryimpl"
)

type fixture struct {
	srv       *httptest.Server
	notifier  *testutil.Notifier
	managerID uuid.UUID
	devID     uuid.UUID
	teamID    uuid.UUID
	projectID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	f := &fixture{
		notifier:  &testutil.Notifier{},
		managerID: testutil.InsertUser(t, db, "alice", "manager"),
		devID:     testutil.InsertUser(t, db, "bob", "developer"),
		teamID:    testutil.InsertTeam(t, db, "core"),
		projectID: testutil.InsertProject(t, db, "forge"),
	}

	userRepo := userrepo.NewSQLRepository(db.DB)
	sprintRepo := sprintrepo.NewSQLRepository(db.DB)
	historyRepo := historyrepo.NewSQLRepository(db)
	validator := sprint.NewValidator(userRepo, teamrepo.NewSQLRepository(db.DB), projectrepo.NewSQLRepository(db.DB), nil)

	s := server.NewServer(
		&config.Env{},
		task.NewServer(task.NewService(taskrepo.NewSQLRepository(db), historyRepo, userRepo, sprintRepo, f.notifier)),
		taskhistory.NewServer(historyRepo),
		sprint.NewServer(sprint.NewService(sprintRepo, validator, f.notifier)),
		live.NewHub(eventbus.New()),
		server.NewHealthChecker(map[string]server.Pinger{"database": server.PingFunc(db.PingContext)}),
	)
	f.srv = httptest.NewServer(s.Handler())
	t.Cleanup(f.srv.Close)
	return f
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}

func (f *fixture) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func TestServer_TaskLifecycle(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"name":        "write docs",
		"taskTypeId":  1,
		"developerId": f.devID,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created task.Task
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, task.StatusAssigned, created.StatusID)

	status, env = f.do(t, http.MethodPut, "/api/tasks/"+created.ID.String()+"/start", nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "Task started", env.Message)
	var res task.TransitionResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "Started", res.Status)
	assert.Equal(t, created.ID, res.TaskID)

	status, _ = f.do(t, http.MethodPut, "/api/tasks/"+created.ID.String()+"/pause", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = f.do(t, http.MethodGet, "/api/tasks/"+created.ID.String()+"/time", nil)
	require.Equal(t, http.StatusOK, status)
	var tt task.TaskTime
	require.NoError(t, json.Unmarshal(env.Data, &tt))
	assert.False(t, tt.IsRunning)
	assert.Equal(t, "Paused", tt.CurrentStatus)
	assert.GreaterOrEqual(t, tt.TotalSeconds, int64(0))

	status, env = f.do(t, http.MethodGet, "/api/taskHistories?taskId="+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Assigned", entries[0]["oldStatus"])
	assert.Equal(t, "Started", entries[0]["newStatus"])
	assert.Equal(t, "Started", entries[1]["oldStatus"])
	assert.Equal(t, "Paused", entries[1]["newStatus"])

	status, env = f.do(t, http.MethodGet, "/api/tasks/developer/"+f.devID.String()+"/times", nil)
	require.Equal(t, http.StatusOK, status)
	var times []task.TaskTime
	require.NoError(t, json.Unmarshal(env.Data, &times))
	require.Len(t, times, 1)
	assert.Equal(t, "write docs", times[0].TaskName)

	assert.Len(t, f.notifier.Notifications(), 3)
}

func TestServer_Statuses(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodGet, "/api/taskStatuses", nil)
	require.Equal(t, http.StatusOK, status)
	var statuses []task.Status
	require.NoError(t, json.Unmarshal(env.Data, &statuses))
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Created", "Assigned", "Started", "Paused", "Stopped"}, names)
}

func TestServer_EmptyListsRenderAsArrays(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{
		"/api/sprints",
		"/api/taskHistories",
		"/api/tasks/developer/" + f.devID.String(),
	} {
		status, env := f.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, status, path)
		assert.JSONEq(t, "[]", string(env.Data), path)
	}
}

func TestServer_SprintCRUD(t *testing.T) {
	f := newFixture(t)
	start := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	end := time.Now().UTC().AddDate(0, 0, 15).Format("2006-01-02")

	status, env := f.do(t, http.MethodPost, "/api/sprints", map[string]any{
		"name":      "Sprint 1",
		"startDate": start,
		"endDate":   end,
		"managerId": f.managerID,
		"teamId":    f.teamID,
		"projectId": f.projectID,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var sp map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &sp))
	assert.Equal(t, start, sp["startDate"])
	id := sp["id"].(string)

	status, env = f.do(t, http.MethodPut, "/api/sprints/"+id, map[string]any{"name": "Sprint One"})
	require.Equal(t, http.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &sp))
	assert.Equal(t, "Sprint One", sp["name"])

	status, env = f.do(t, http.MethodGet, "/api/sprints/manager/"+f.managerID.String()+"/last", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &sp))
	assert.Equal(t, id, sp["id"])

	status, _ = f.do(t, http.MethodDelete, "/api/sprints/"+id, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, env = f.do(t, http.MethodGet, "/api/sprints/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", env.Code)

	assert.Equal(t, []string{
		"CREATE Sprint: Sprint " + id + " created",
		"UPDATE Sprint: Sprint " + id + " updated",
		"DELETE Sprint: Sprint " + id + " deleted",
	}, f.notifier.Audits())
}

func TestServer_Errors(t *testing.T) {
	f := newFixture(t)
	start := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	end := time.Now().UTC().AddDate(0, 0, 15).Format("2006-01-02")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{
			name:   "unknown task",
			method: http.MethodPut,
			path:   "/api/tasks/" + uuid.NewString() + "/start",
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{
			name:   "malformed task id",
			method: http.MethodGet,
			path:   "/api/tasks/not-a-uuid",
			status: http.StatusBadRequest,
			code:   "invalid_argument",
		},
		{
			name:   "malformed history filter",
			method: http.MethodGet,
			path:   "/api/taskHistories?taskId=nope",
			status: http.StatusBadRequest,
			code:   "invalid_argument",
		},
		{
			name:   "unknown body field",
			method: http.MethodPost,
			path:   "/api/tasks",
			body:   map[string]any{"name": "x", "taskTypeId": 1, "bogus": true},
			status: http.StatusBadRequest,
			code:   "invalid_argument",
		},
		{
			name:   "sprint by non-manager",
			method: http.MethodPost,
			path:   "/api/sprints",
			body: map[string]any{
				"name":      "Sprint",
				"startDate": start,
				"endDate":   end,
				"managerId": f.devID,
				"teamId":    f.teamID,
				"projectId": f.projectID,
			},
			status: http.StatusForbidden,
			code:   "permission_denied",
		},
		{
			name:   "unknown route",
			method: http.MethodGet,
			path:   "/api/nothing",
			status: http.StatusNotFound,
			code:   "not_found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, env.Code)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestHealthChecker(t *testing.T) {
	up := server.PingFunc(func(context.Context) error { return nil })
	down := server.PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		deps   map[string]server.Pinger
		status int
		want   map[string]string
	}{
		{
			name:   "all up",
			deps:   map[string]server.Pinger{"database": up, "rabbitmq": up},
			status: http.StatusOK,
			want:   map[string]string{"database": "up", "rabbitmq": "up"},
		},
		{
			name:   "broker down",
			deps:   map[string]server.Pinger{"database": up, "rabbitmq": down},
			status: http.StatusServiceUnavailable,
			want:   map[string]string{"database": "up", "rabbitmq": "down"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			server.NewHealthChecker(tt.deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, rec.Code)
			var body struct {
				Status       string            `json:"status"`
				Dependencies map[string]string `json:"dependencies"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.want, body.Dependencies)
		})
	}
}
