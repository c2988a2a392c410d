// Package testutil holds fixtures shared by repository and engine tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/an4xdev/SprintForge/internal/database"
)

// NewDB opens a private in-memory SQLite database with the schema applied.
func NewDB(t testing.TB) *database.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Connect(context.Background(), database.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func InsertUser(t testing.TB, db *database.DB, username, role string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(`INSERT INTO users (id, username, role) VALUES ($1, $2, $3)`, id, username, role)
	require.NoError(t, err)
	return id
}

func InsertTeam(t testing.TB, db *database.DB, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(`INSERT INTO teams (id, name) VALUES ($1, $2)`, id, name)
	require.NoError(t, err)
	return id
}

func InsertProject(t testing.TB, db *database.DB, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(`INSERT INTO projects (id, name) VALUES ($1, $2)`, id, name)
	require.NoError(t, err)
	return id
}

// InsertStatus adds a row to the status catalogue beyond the seeded ones.
func InsertStatus(t testing.TB, db *database.DB, id int, name string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO task_statuses (id, name) VALUES ($1, $2)`, id, name)
	require.NoError(t, err)
}

// InsertTask stores a task with the given status id. developerID may be
// uuid.Nil for an unassigned task.
func InsertTask(t testing.TB, db *database.DB, name string, statusID int, developerID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	dev := uuid.NullUUID{UUID: developerID, Valid: developerID != uuid.Nil}
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO tasks (id, name, task_type_id, status_id, developer_id, version, created_at, updated_at) VALUES ($1, $2, 1, $3, $4, 0, $5, $6)`,
		id, name, statusID, dev, now, now,
	)
	require.NoError(t, err)
	return id
}

// InsertHistory stores a raw history row, bypassing derivation. oldStatus
// may be nil to mimic imported rows.
func InsertHistory(t testing.TB, db *database.DB, taskID uuid.UUID, at time.Time, newStatus string, oldStatus *string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO task_histories (id, task_id, changed_at, new_status, old_status) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), taskID, at.UTC(), newStatus, oldStatus,
	)
	require.NoError(t, err)
}
