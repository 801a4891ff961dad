package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines read access to account users.
type Repository interface {
	// FindByID returns the user or nil when no user exists with the id.
	FindByID(ctx context.Context, id int64) (*AccountUser, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id int64) (*AccountUser, error) {
	var u AccountUser
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM account_users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
