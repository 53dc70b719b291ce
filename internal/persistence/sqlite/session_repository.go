package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using sqlite.
type SessionRepository struct {
	pool *ConnectionPool
}

// NewSessionRepository creates a sqlite-backed session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateSession stores a newly issued session.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO sessions (id, user_id, token, fingerprint, expires_at, created_at, updated_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.Fingerprint,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
		nullableTime(session.RevokedAt),
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return r.GetSession(ctx, session.Token)
}

// GetSession retrieves a session by its opaque token.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, user_id, token, fingerprint, expires_at, created_at, updated_at, revoked_at
		FROM sessions
		WHERE token = ?
	`
	row := r.pool.db.QueryRowContext(ctx, query, token)

	var (
		session   persistence.Session
		expiresAt string
		createdAt string
		updatedAt string
		revokedAt sql.NullString
	)
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.Fingerprint,
		&expiresAt,
		&createdAt,
		&updatedAt,
		&revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, mapError(err)
	}

	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, fmt.Errorf("parse expires_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, fmt.Errorf("parse created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if revokedAt.Valid {
		ts, err := parseTime(revokedAt.String)
		if err != nil {
			return persistence.Session{}, fmt.Errorf("parse revoked_at: %w", err)
		}
		session.RevokedAt = &ts
	}
	return session, nil
}

// RevokeSession marks a session revoked without deleting its record.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	query := `UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE token = ?`
	result, err := r.pool.db.ExecContext(ctx, query, formatTime(revokedAt), formatTime(revokedAt), token)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions prunes sessions whose expiry precedes the reference time.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.pool.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(reference))
	return mapError(err)
}

var _ persistence.SessionRepository = (*SessionRepository)(nil)
