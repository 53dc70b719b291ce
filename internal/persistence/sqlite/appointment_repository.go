package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository using sqlite.
type AppointmentRepository struct {
	pool *ConnectionPool
}

// NewAppointmentRepository creates a sqlite-backed appointment repository.
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// overlapWhere selects non-cancelled appointments for an agent intersecting a
// half-open interval [start, end): s1 < e2 AND s2 < e1.
const overlapWhere = `
	agent_id = ?
	AND status != 'CANCELLED'
	AND date_time < ?
	AND end_time > ?
`

// CreateAppointment inserts a new appointment. The overlap check runs again
// inside the insert transaction so that two concurrent requests for the same
// slot cannot both commit; the loser receives persistence.ErrConflict.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var existingID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM appointments WHERE `+overlapWhere+` LIMIT 1`,
			appointment.AgentID,
			formatTime(appointment.EndTime),
			formatTime(appointment.DateTime),
		).Scan(&existingID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: overlaps appointment %s", persistence.ErrConflict, existingID)
		case errors.Is(err, sql.ErrNoRows):
			// Slot is free.
		default:
			return mapError(err)
		}

		query := `
			INSERT INTO appointments (id, customer_id, agent_id, date_time, end_time, status, purpose, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query,
			appointment.ID,
			appointment.CustomerID,
			appointment.AgentID,
			formatTime(appointment.DateTime),
			formatTime(appointment.EndTime),
			appointment.Status,
			appointment.Purpose,
			nullableString(appointment.Notes),
			formatTime(appointment.CreatedAt),
			formatTime(appointment.UpdatedAt),
		)
		return mapError(err)
	})
}

// GetAppointment retrieves an appointment by ID.
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, appointmentSelect+` WHERE id = ?`, id)
	return scanAppointment(row)
}

// FindOverlapping returns any non-cancelled appointment for the agent whose
// interval intersects [start, end). A nil result means the slot is free.
func (r *AppointmentRepository) FindOverlapping(ctx context.Context, agentID string, start, end time.Time) (*persistence.Appointment, error) {
	row := r.pool.db.QueryRowContext(ctx,
		appointmentSelect+` WHERE `+overlapWhere+` LIMIT 1`,
		agentID,
		formatTime(end),
		formatTime(start),
	)
	appointment, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// UpdateAppointmentStatus sets a new status, replaces the notes when provided,
// and refreshes the modification time.
func (r *AppointmentRepository) UpdateAppointmentStatus(ctx context.Context, id, status string, notes *string, updatedAt time.Time) (persistence.Appointment, error) {
	query := `UPDATE appointments SET status = ?, updated_at = ?`
	args := []any{status, formatTime(updatedAt)}
	if notes != nil {
		query += `, notes = ?`
		args = append(args, *notes)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	result, err := r.pool.db.ExecContext(ctx, query, args...)
	if err != nil {
		return persistence.Appointment{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Appointment{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	return r.GetAppointment(ctx, id)
}

// ListForCustomer returns one page of the customer's appointments ordered by
// start time ascending, plus the unpaged total for the filter.
func (r *AppointmentRepository) ListForCustomer(ctx context.Context, customerID string, filter persistence.AppointmentFilter) ([]persistence.Appointment, int, error) {
	return r.list(ctx, `customer_id`, customerID, filter)
}

// ListForAgent returns one page of the agent's appointments ordered by start
// time ascending, plus the unpaged total for the filter.
func (r *AppointmentRepository) ListForAgent(ctx context.Context, agentID string, filter persistence.AppointmentFilter) ([]persistence.Appointment, int, error) {
	return r.list(ctx, `agent_id`, agentID, filter)
}

func (r *AppointmentRepository) list(ctx context.Context, column, id string, filter persistence.AppointmentFilter) ([]persistence.Appointment, int, error) {
	where := ` WHERE ` + column + ` = ?`
	args := []any{id}
	if filter.Status != "" {
		where += ` AND status = ?`
		args = append(args, filter.Status)
	}

	var total int
	if err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	query := appointmentSelect + where + ` ORDER BY date_time ASC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var appointments []persistence.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, total, rows.Err()
}

// CountByStatus returns the number of appointments currently in a status.
func (r *AppointmentRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

const appointmentSelect = `
	SELECT id, customer_id, agent_id, date_time, end_time, status, purpose, notes, created_at, updated_at
	FROM appointments
`

func scanAppointment(row rowScanner) (persistence.Appointment, error) {
	var (
		appointment persistence.Appointment
		dateTime    string
		endTime     string
		notes       sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(
		&appointment.ID,
		&appointment.CustomerID,
		&appointment.AgentID,
		&dateTime,
		&endTime,
		&appointment.Status,
		&appointment.Purpose,
		&notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Appointment{}, persistence.ErrNotFound
		}
		return persistence.Appointment{}, mapError(err)
	}

	if appointment.DateTime, err = parseTime(dateTime); err != nil {
		return persistence.Appointment{}, fmt.Errorf("parse date_time: %w", err)
	}
	if appointment.EndTime, err = parseTime(endTime); err != nil {
		return persistence.Appointment{}, fmt.Errorf("parse end_time: %w", err)
	}
	if notes.Valid {
		appointment.Notes = &notes.String
	}
	if appointment.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Appointment{}, fmt.Errorf("parse created_at: %w", err)
	}
	if appointment.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Appointment{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return appointment, nil
}

var _ persistence.AppointmentRepository = (*AppointmentRepository)(nil)
