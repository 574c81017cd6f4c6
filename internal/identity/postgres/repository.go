// Package postgres provides the PostgreSQL implementation of the identity
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maltroom/cellarman/internal/domain"
	"github.com/maltroom/cellarman/internal/identity"
)

// Repository implements identity.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByEmail retrieves a member record by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT email, name, role, created_at
		FROM users
		WHERE email = $1
	`
	var user domain.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.Email,
		&user.Name,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

// createLockID serializes member creation so that only one insert can ever
// observe the empty table.
const createLockID = 4129

// Create inserts a new member record. The empty-table check and the insert
// run in one transaction under an advisory lock, so exactly one record can
// ever receive the superadmin seat no matter how logins interleave.
func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, createLockID); err != nil {
		return fmt.Errorf("acquire create lock: %w", err)
	}

	query := `
		INSERT INTO users (email, name, role)
		SELECT $1, $2, CASE
			WHEN EXISTS (SELECT 1 FROM users) THEN $3::text
			ELSE 'superadmin'
		END
		RETURNING role, created_at
	`
	err = tx.QueryRow(ctx, query,
		user.Email,
		user.Name,
		user.Role,
	).Scan(&user.Role, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return identity.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	return tx.Commit(ctx)
}

// List retrieves all member records ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT email, name, role, created_at
		FROM users
		ORDER BY created_at, email
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.Email, &user.Name, &user.Role, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// UpdateRole sets a member's role.
func (r *Repository) UpdateRole(ctx context.Context, email string, role domain.Role) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1 WHERE email = $2`, role, email)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}

	return nil
}
