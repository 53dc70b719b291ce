package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/brokerage/internal/persistence"
)

// UserRepository implements persistence.UserRepository using sqlite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a sqlite-backed user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a new user account.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	status := user.Status
	if status == "" {
		status = "active"
	}

	query := `
		INSERT INTO users (id, email, first_name, last_name, password_hash, role, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		user.ID,
		normalizeEmail(user.Email),
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Role,
		status,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapError(err)
}

// UpdateUser updates an existing user account.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE users
		SET email = ?, first_name = ?, last_name = ?, password_hash = ?, role = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		normalizeEmail(user.Email),
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Role,
		user.Status,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, userSelect+` WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by normalized email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx, userSelect+` WHERE email = ?`, normalizeEmail(email))
	return scanUser(row)
}

// ListUsers returns all users ordered by creation time.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, userSelect+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountUsersByRole returns the number of accounts holding the given role.
func (r *UserRepository) CountUsersByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// DeleteUser removes a user account.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

const userSelect = `
	SELECT id, email, first_name, last_name, password_hash, role, status, created_at, updated_at
	FROM users
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user      persistence.User
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapError(err)
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ persistence.UserRepository = (*UserRepository)(nil)
