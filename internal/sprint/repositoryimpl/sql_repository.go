package repositoryimpl

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/sprint"
	"github.com/an4xdev/SprintForge/pkg/cerr"
)

const sprintColumns = `SELECT id, name, start_date, end_date, manager_id, team_id, project_id FROM sprints`

type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, s *sprint.Sprint) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sprints (id, name, start_date, end_date, manager_id, team_id, project_id) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.Name, s.StartDate.Time, s.EndDate.Time, s.ManagerID, s.TeamID, s.ProjectID,
	)
	if err != nil {
		return cerr.WrapSQLWriteError("sprint", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id uuid.UUID) (*sprint.Sprint, error) {
	s, err := scanSprint(r.db.QueryRowContext(ctx, sprintColumns+` WHERE id = $1`, id))
	if err != nil {
		return nil, cerr.WrapSQLReadError("sprint", err)
	}
	return s, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*sprint.Sprint, error) {
	return r.query(ctx, sprintColumns+` ORDER BY start_date ASC`)
}

func (r *SQLRepository) ListByManager(ctx context.Context, managerID uuid.UUID) ([]*sprint.Sprint, error) {
	return r.query(ctx, sprintColumns+` WHERE manager_id = $1 ORDER BY start_date ASC`, managerID)
}

func (r *SQLRepository) LatestByManager(ctx context.Context, managerID uuid.UUID) (*sprint.Sprint, error) {
	row := r.db.QueryRowContext(ctx, sprintColumns+` WHERE manager_id = $1 ORDER BY start_date DESC LIMIT 1`, managerID)
	s, err := scanSprint(row)
	if err != nil {
		return nil, cerr.WrapSQLReadError("sprint", err)
	}
	return s, nil
}

func (r *SQLRepository) Update(ctx context.Context, s *sprint.Sprint) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sprints SET name = $1, start_date = $2, end_date = $3, manager_id = $4, team_id = $5, project_id = $6 WHERE id = $7`,
		s.Name, s.StartDate.Time, s.EndDate.Time, s.ManagerID, s.TeamID, s.ProjectID, s.ID,
	)
	if err != nil {
		return cerr.WrapSQLWriteError("sprint", err)
	}
	return requireOneRow(res, "sprint")
}

func (r *SQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sprints WHERE id = $1`, id)
	if err != nil {
		return cerr.WrapSQLDeleteError("sprint", err)
	}
	return requireOneRow(res, "sprint")
}

func (r *SQLRepository) query(ctx context.Context, stmt string, args ...any) ([]*sprint.Sprint, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, cerr.WrapSQLReadError("sprints", err)
	}
	defer rows.Close()

	var sprints []*sprint.Sprint
	for rows.Next() {
		s, err := scanSprint(rows)
		if err != nil {
			return nil, cerr.WrapSQLReadError("sprints", err)
		}
		sprints = append(sprints, s)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapSQLReadError("sprints", err)
	}
	return sprints, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSprint(sc scanner) (*sprint.Sprint, error) {
	var (
		s          sprint.Sprint
		start, end time.Time
	)
	if err := sc.Scan(&s.ID, &s.Name, &start, &end, &s.ManagerID, &s.TeamID, &s.ProjectID); err != nil {
		return nil, err
	}
	s.StartDate = sprint.DateOf(start)
	s.EndDate = sprint.DateOf(end)
	return &s, nil
}

func requireOneRow(res sql.Result, target string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return cerr.WrapSQLWriteError(target, err)
	}
	if n == 0 {
		return cerr.WrapSQLDeleteError(target, sql.ErrNoRows)
	}
	return nil
}
