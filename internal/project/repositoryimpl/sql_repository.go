package repositoryimpl

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/project"
	"github.com/an4xdev/SprintForge/pkg/cerr"
)

type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Get(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var p project.Project
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM projects WHERE id = $1`, id).Scan(&p.ID, &p.Name)
	if err != nil {
		return nil, cerr.WrapSQLReadError("project", err)
	}
	return &p, nil
}
