package repositoryimpl

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/taskhistory"
	"github.com/an4xdev/SprintForge/pkg/cerr"
)

const selectColumns = `SELECT id, task_id, changed_at, new_status, old_status FROM task_histories`

// Querier is satisfied by both *sql.DB and *sql.Tx, so the transition
// engine can read and append history inside its own transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLRepository struct {
	db Querier
}

func NewSQLRepository(db Querier) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*taskhistory.Entry, error) {
	return query(ctx, r.db, selectColumns+` WHERE task_id = $1 ORDER BY changed_at ASC`, taskID)
}

func (r *SQLRepository) List(ctx context.Context) ([]*taskhistory.Entry, error) {
	return query(ctx, r.db, selectColumns+` ORDER BY task_id ASC, changed_at ASC`)
}

// Tail returns the newest entry of a task, or nil when it has none.
func Tail(ctx context.Context, q Querier, taskID uuid.UUID) (*taskhistory.Entry, error) {
	row := q.QueryRowContext(ctx, selectColumns+` WHERE task_id = $1 ORDER BY changed_at DESC LIMIT 1`, taskID)
	e, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, cerr.WrapSQLReadError("task history", err)
	}
	return e, nil
}

func Append(ctx context.Context, q Querier, e *taskhistory.Entry) error {
	var old sql.NullString
	if s, ok := e.OldStatus(); ok {
		old = sql.NullString{String: s, Valid: true}
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO task_histories (id, task_id, changed_at, new_status, old_status) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.TaskID, e.ChangedAt, e.NewStatus, old,
	)
	if err != nil {
		return cerr.WrapSQLWriteError("task history", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*taskhistory.Entry, error) {
	var (
		id, taskID uuid.UUID
		changedAt  sql.NullTime
		newStatus  string
		old        sql.NullString
	)
	if err := s.Scan(&id, &taskID, &changedAt, &newStatus, &old); err != nil {
		return nil, err
	}
	var oldStatus *string
	if old.Valid {
		oldStatus = &old.String
	}
	return taskhistory.Restore(id, taskID, changedAt.Time, newStatus, oldStatus), nil
}

func query(ctx context.Context, q Querier, stmt string, args ...any) ([]*taskhistory.Entry, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, cerr.WrapSQLReadError("task histories", err)
	}
	defer rows.Close()

	var entries []*taskhistory.Entry
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, cerr.WrapSQLReadError("task histories", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapSQLReadError("task histories", err)
	}
	return entries, nil
}
