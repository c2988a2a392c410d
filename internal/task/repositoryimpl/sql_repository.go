package repositoryimpl

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/database"
	"github.com/an4xdev/SprintForge/internal/task"
	"github.com/an4xdev/SprintForge/internal/taskhistory"
	historyrepo "github.com/an4xdev/SprintForge/internal/taskhistory/repositoryimpl"
	"github.com/an4xdev/SprintForge/pkg/cerr"
)

const taskColumns = `SELECT id, name, description, task_type_id, status_id, developer_id, sprint_id, version, created_at, updated_at FROM tasks`

type SQLRepository struct {
	db *database.DB
}

func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, t *task.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, name, description, task_type_id, status_id, developer_id, sprint_id, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Name, nullString(t.Description), t.TaskTypeID, t.StatusID,
		nullUUID(t.DeveloperID), nullUUID(t.SprintID), t.Version, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return cerr.WrapSQLWriteError("task", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, taskColumns+` WHERE id = $1`, id))
	if err != nil {
		return nil, cerr.WrapSQLReadError("task", err)
	}
	return t, nil
}

func (r *SQLRepository) ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]*task.Task, error) {
	rows, err := r.db.QueryContext(ctx, taskColumns+` WHERE developer_id = $1 ORDER BY created_at ASC`, developerID)
	if err != nil {
		return nil, cerr.WrapSQLReadError("tasks", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, cerr.WrapSQLReadError("tasks", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapSQLReadError("tasks", err)
	}
	return tasks, nil
}

func (r *SQLRepository) TaskTypeExists(ctx context.Context, id int) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_types WHERE id = $1`, id).Scan(&n); err != nil {
		return false, cerr.WrapSQLReadError("task type", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) Statuses(ctx context.Context) ([]*task.Status, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM task_statuses ORDER BY id ASC`)
	if err != nil {
		return nil, cerr.WrapSQLReadError("task statuses", err)
	}
	defer rows.Close()

	var statuses []*task.Status
	for rows.Next() {
		var st task.Status
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, cerr.WrapSQLReadError("task statuses", err)
		}
		statuses = append(statuses, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapSQLReadError("task statuses", err)
	}
	return statuses, nil
}

func (r *SQLRepository) Status(ctx context.Context, id int) (*task.Status, error) {
	return statusByID(ctx, r.db, id)
}

func (r *SQLRepository) StatusByName(ctx context.Context, name string) (*task.Status, error) {
	return statusByName(ctx, r.db, name)
}

func (r *SQLRepository) InTx(ctx context.Context, fn func(task.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return cerr.WrapSQLWriteError("task", err)
	}
	// no-op once committed
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&sqlTx{tx: tx, forUpdate: r.db.ForUpdate()}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return cerr.WrapSQLWriteError("task", err)
	}
	return nil
}

type sqlTx struct {
	tx        *sql.Tx
	forUpdate string
}

func (t *sqlTx) LockTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	row := t.tx.QueryRowContext(ctx, taskColumns+` WHERE id = $1`+t.forUpdate, id)
	locked, err := scanTask(row)
	if err != nil {
		return nil, cerr.WrapSQLReadError("task", err)
	}
	return locked, nil
}

func (t *sqlTx) Status(ctx context.Context, id int) (*task.Status, error) {
	return statusByID(ctx, t.tx, id)
}

func (t *sqlTx) StatusByName(ctx context.Context, name string) (*task.Status, error) {
	return statusByName(ctx, t.tx, name)
}

func (t *sqlTx) HistoryTail(ctx context.Context, taskID uuid.UUID) (*taskhistory.Entry, error) {
	return historyrepo.Tail(ctx, t.tx, taskID)
}

func (t *sqlTx) AppendHistory(ctx context.Context, e *taskhistory.Entry) error {
	return historyrepo.Append(ctx, t.tx, e)
}

func (t *sqlTx) SwapStatus(ctx context.Context, taskID uuid.UUID, statusID int, expectedVersion int64, at time.Time) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE tasks SET status_id = $1, version = version + 1, updated_at = $2 WHERE id = $3 AND version = $4`,
		statusID, at, taskID, expectedVersion,
	)
	if err != nil {
		return false, cerr.WrapSQLWriteError("task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, cerr.WrapSQLWriteError("task", err)
	}
	return n == 1, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func statusByID(ctx context.Context, q queryRower, id int) (*task.Status, error) {
	var st task.Status
	if err := q.QueryRowContext(ctx, `SELECT id, name FROM task_statuses WHERE id = $1`, id).Scan(&st.ID, &st.Name); err != nil {
		return nil, cerr.WrapSQLReadError("task status", err)
	}
	return &st, nil
}

func statusByName(ctx context.Context, q queryRower, name string) (*task.Status, error) {
	var st task.Status
	if err := q.QueryRowContext(ctx, `SELECT id, name FROM task_statuses WHERE name = $1`, name).Scan(&st.ID, &st.Name); err != nil {
		return nil, cerr.WrapSQLReadError("task status", err)
	}
	return &st, nil
}

func scanTask(s scanner) (*task.Task, error) {
	var (
		t           task.Task
		description sql.NullString
		developerID uuid.NullUUID
		sprintID    uuid.NullUUID
	)
	err := s.Scan(&t.ID, &t.Name, &description, &t.TaskTypeID, &t.StatusID,
		&developerID, &sprintID, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	if developerID.Valid {
		t.DeveloperID = &developerID.UUID
	}
	if sprintID.Valid {
		t.SprintID = &sprintID.UUID
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
