package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/user/entity"
)

// UserRepo provides data access for the users table using sqlx.
// Queries are written with ? placeholders and rebound for the driver.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// GetByEmail returns the user for email or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	q := r.db.Rebind(`SELECT id, email, code, token FROM users WHERE email = ?`)
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertCode stores a fresh code for email and clears any token, creating the
// row on first use. It is a single statement keyed on the unique email column.
func (r *UserRepo) UpsertCode(ctx context.Context, email string, code int) error {
	q := r.db.Rebind(`INSERT INTO users (email, code, token) VALUES (?, ?, '')
		ON CONFLICT (email) DO UPDATE SET code = excluded.code, token = '', updated_at = CURRENT_TIMESTAMP`)
	if _, err := r.db.ExecContext(ctx, q, email, code); err != nil {
		return fmt.Errorf("upsert user code: %w", err)
	}
	return nil
}

// SaveToken stores token for email and clears the code.
// It returns sql.ErrNoRows when no user has that email.
func (r *UserRepo) SaveToken(ctx context.Context, email, token string) error {
	q := r.db.Rebind(`UPDATE users SET code = NULL, token = ?, updated_at = CURRENT_TIMESTAMP WHERE email = ?`)
	res, err := r.db.ExecContext(ctx, q, token, email)
	if err != nil {
		return fmt.Errorf("save user token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save user token: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
