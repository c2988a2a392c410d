package repositoryimpl

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/team"
	"github.com/an4xdev/SprintForge/pkg/cerr"
)

type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Get(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	var t team.Team
	if err := r.db.QueryRowContext(ctx, `SELECT id, name FROM teams WHERE id = $1`, id).Scan(&t.ID, &t.Name); err != nil {
		return nil, cerr.WrapSQLReadError("team", err)
	}
	return &t, nil
}
