package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(ctx, DriverSQLite, "file:migrate_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx))

	rows, err := db.QueryContext(ctx, `SELECT name FROM task_statuses ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"Created", "Assigned", "Started", "Paused", "Stopped"}, names)
}

func TestForUpdateDependsOnDriver(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", (&DB{Driver: DriverPostgres}).ForUpdate())
	assert.Equal(t, "", (&DB{Driver: DriverSQLite}).ForUpdate())
}

func TestStatementsSplit(t *testing.T) {
	got := statements("CREATE TABLE a (x INT);\n\n  CREATE TABLE b (y INT);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE TABLE b (y INT)"}, got)
}
