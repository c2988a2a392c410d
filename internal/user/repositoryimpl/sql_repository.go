package repositoryimpl

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/an4xdev/SprintForge/internal/user"
	"github.com/an4xdev/SprintForge/pkg/cerr"
)

type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	err := r.db.QueryRowContext(ctx, `SELECT id, username, role FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.Role)
	if err != nil {
		return nil, cerr.WrapSQLReadError("user", err)
	}
	return &u, nil
}
