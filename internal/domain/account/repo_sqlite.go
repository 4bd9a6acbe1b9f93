package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/medtrack/medtrack/internal/platform/db"
)

type UserRepoSQLite struct {
	db *db.DB
}

func NewUserRepoSQLite(d *db.DB) *UserRepoSQLite {
	return &UserRepoSQLite{db: d}
}

const userCols = `id, username, email, password_hash, role, created_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepoSQLite) Create(ctx context.Context, u *User) error {
	res, err := r.db.Exec(ctx,
		`INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r *UserRepoSQLite) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = ?`, id))
}

func (r *UserRepoSQLite) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE username = ?`, username))
}

func (r *UserRepoSQLite) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email = ?`, email))
}
