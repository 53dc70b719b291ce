package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/example/brokerage/internal/persistence"
)

// AgentRepository implements persistence.AgentRepository using sqlite.
type AgentRepository struct {
	pool *ConnectionPool
}

// NewAgentRepository creates a sqlite-backed agent repository.
func NewAgentRepository(pool *ConnectionPool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

// CreateAgent inserts an agent profile together with its initial availability.
func (r *AgentRepository) CreateAgent(ctx context.Context, agent persistence.Agent) error {
	if agent.ID == "" || agent.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO agents (id, user_id, specialization, experience, rating, total_ratings, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			agent.ID,
			agent.UserID,
			agent.Specialization,
			agent.Experience,
			agent.Rating,
			agent.TotalRatings,
			agent.Status,
			formatTime(agent.CreatedAt),
			formatTime(agent.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}
		return insertAvailability(ctx, tx, agent.ID, agent.Availability)
	})
}

// UpdateAgent updates profile fields; availability is replaced separately.
func (r *AgentRepository) UpdateAgent(ctx context.Context, agent persistence.Agent) error {
	if agent.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE agents
		SET specialization = ?, experience = ?, rating = ?, total_ratings = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		agent.Specialization,
		agent.Experience,
		agent.Rating,
		agent.TotalRatings,
		agent.Status,
		formatTime(agent.UpdatedAt),
		agent.ID,
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

// GetAgent retrieves an agent profile with its availability.
func (r *AgentRepository) GetAgent(ctx context.Context, id string) (persistence.Agent, error) {
	return r.getAgentWhere(ctx, `id = ?`, id)
}

// GetAgentByUserID retrieves the agent profile owned by a user.
func (r *AgentRepository) GetAgentByUserID(ctx context.Context, userID string) (persistence.Agent, error) {
	return r.getAgentWhere(ctx, `user_id = ?`, userID)
}

func (r *AgentRepository) getAgentWhere(ctx context.Context, where string, arg string) (persistence.Agent, error) {
	if arg == "" {
		return persistence.Agent{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, agentSelect+` WHERE `+where, arg)
	agent, err := scanAgent(row)
	if err != nil {
		return persistence.Agent{}, err
	}

	availability, err := r.loadAvailability(ctx, agent.ID)
	if err != nil {
		return persistence.Agent{}, err
	}
	agent.Availability = availability
	return agent, nil
}

// ListAgents returns agents, optionally filtered by profile status.
func (r *AgentRepository) ListAgents(ctx context.Context, status string) ([]persistence.Agent, error) {
	query := agentSelect
	args := make([]any, 0, 1)
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var agents []persistence.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range agents {
		availability, err := r.loadAvailability(ctx, agents[i].ID)
		if err != nil {
			return nil, err
		}
		agents[i].Availability = availability
	}
	return agents, nil
}

// ReplaceAvailability swaps the agent's entire weekly availability in one
// transaction so readers never observe a partially written week.
func (r *AgentRepository) ReplaceAvailability(ctx context.Context, agentID string, entries []persistence.AvailabilityEntry) error {
	if agentID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists string
		err := tx.QueryRowContext(ctx, `SELECT id FROM agents WHERE id = ?`, agentID).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return mapError(err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM agent_availability WHERE agent_id = ?`, agentID); err != nil {
			return mapError(err)
		}
		return insertAvailability(ctx, tx, agentID, entries)
	})
}

func insertAvailability(ctx context.Context, tx *sql.Tx, agentID string, entries []persistence.AvailabilityEntry) error {
	query := `
		INSERT INTO agent_availability (agent_id, day, position, start_time, end_time)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, entry := range entries {
		for position, slot := range entry.Slots {
			if _, err := tx.ExecContext(ctx, query, agentID, entry.Day, position, slot.StartTime, slot.EndTime); err != nil {
				return mapError(err)
			}
		}
	}
	return nil
}

func (r *AgentRepository) loadAvailability(ctx context.Context, agentID string) ([]persistence.AvailabilityEntry, error) {
	query := `
		SELECT day, start_time, end_time
		FROM agent_availability
		WHERE agent_id = ?
		ORDER BY day ASC, position ASC
	`
	rows, err := r.pool.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	byDay := make(map[string][]persistence.AvailabilitySlot)
	for rows.Next() {
		var day string
		var slot persistence.AvailabilitySlot
		if err := rows.Scan(&day, &slot.StartTime, &slot.EndTime); err != nil {
			return nil, mapError(err)
		}
		byDay[day] = append(byDay[day], slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(byDay) == 0 {
		return nil, nil
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return weekdayIndex(days[i]) < weekdayIndex(days[j])
	})

	entries := make([]persistence.AvailabilityEntry, 0, len(days))
	for _, day := range days {
		entries = append(entries, persistence.AvailabilityEntry{Day: day, Slots: byDay[day]})
	}
	return entries, nil
}

var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func weekdayIndex(day string) int {
	for i, name := range weekdayOrder {
		if name == day {
			return i
		}
	}
	return len(weekdayOrder)
}

const agentSelect = `
	SELECT id, user_id, specialization, experience, rating, total_ratings, status, created_at, updated_at
	FROM agents
`

func scanAgent(row rowScanner) (persistence.Agent, error) {
	var (
		agent     persistence.Agent
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&agent.ID,
		&agent.UserID,
		&agent.Specialization,
		&agent.Experience,
		&agent.Rating,
		&agent.TotalRatings,
		&agent.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Agent{}, persistence.ErrNotFound
		}
		return persistence.Agent{}, mapError(err)
	}

	if agent.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Agent{}, fmt.Errorf("parse created_at: %w", err)
	}
	if agent.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Agent{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return agent, nil
}

var _ persistence.AgentRepository = (*AgentRepository)(nil)
