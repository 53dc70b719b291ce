package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/brokerage/internal/persistence"
)

// PlanRepository implements persistence.PlanRepository using sqlite.
type PlanRepository struct {
	pool *ConnectionPool
}

// NewPlanRepository creates a sqlite-backed plan repository.
func NewPlanRepository(pool *ConnectionPool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// CreatePlan inserts a plan and its coverage lines in one transaction.
func (r *PlanRepository) CreatePlan(ctx context.Context, plan persistence.Plan) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO plans (id, name, description, premium_amount, premium_frequency, term_duration, term_unit, is_active, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			plan.ID,
			plan.Name,
			plan.Description,
			plan.PremiumAmount,
			plan.PremiumFrequency,
			plan.TermDuration,
			plan.TermUnit,
			boolToInt(plan.IsActive),
			plan.CreatedBy,
			formatTime(plan.CreatedAt),
			formatTime(plan.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}
		return insertCoverage(ctx, tx, plan.ID, plan.Coverage)
	})
}

// UpdatePlan replaces the plan row and rewrites its coverage lines.
func (r *PlanRepository) UpdatePlan(ctx context.Context, plan persistence.Plan) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE plans
			SET name = ?, description = ?, premium_amount = ?, premium_frequency = ?, term_duration = ?, term_unit = ?, is_active = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := tx.ExecContext(ctx, query,
			plan.Name,
			plan.Description,
			plan.PremiumAmount,
			plan.PremiumFrequency,
			plan.TermDuration,
			plan.TermUnit,
			boolToInt(plan.IsActive),
			formatTime(plan.UpdatedAt),
			plan.ID,
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
		if _, err := tx.ExecContext(ctx, `DELETE FROM plan_coverage WHERE plan_id = ?`, plan.ID); err != nil {
			return mapError(err)
		}
		return insertCoverage(ctx, tx, plan.ID, plan.Coverage)
	})
}

// GetPlan retrieves a plan and its coverage lines by ID.
func (r *PlanRepository) GetPlan(ctx context.Context, id string) (persistence.Plan, error) {
	if id == "" {
		return persistence.Plan{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, planSelect+` WHERE id = ?`, id)
	plan, err := scanPlan(row)
	if err != nil {
		return persistence.Plan{}, err
	}
	plan.Coverage, err = r.loadCoverage(ctx, plan.ID)
	if err != nil {
		return persistence.Plan{}, err
	}
	return plan, nil
}

// ListPlans returns plans ordered by name. With onlyActive set, inactive plans
// are excluded.
func (r *PlanRepository) ListPlans(ctx context.Context, onlyActive bool) ([]persistence.Plan, error) {
	query := planSelect
	if onlyActive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var plans []persistence.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range plans {
		plans[i].Coverage, err = r.loadCoverage(ctx, plans[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// DeletePlan removes a plan; coverage lines cascade.
func (r *PlanRepository) DeletePlan(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
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

// CountActivePlans returns the number of plans currently marked active.
func (r *PlanRepository) CountActivePlans(ctx context.Context) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plans WHERE is_active = 1`).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func (r *PlanRepository) loadCoverage(ctx context.Context, planID string) ([]persistence.Coverage, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT type, amount, deductible FROM plan_coverage WHERE plan_id = ? ORDER BY position ASC`,
		planID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var coverage []persistence.Coverage
	for rows.Next() {
		var c persistence.Coverage
		if err := rows.Scan(&c.Type, &c.Amount, &c.Deductible); err != nil {
			return nil, mapError(err)
		}
		coverage = append(coverage, c)
	}
	return coverage, rows.Err()
}

func insertCoverage(ctx context.Context, tx *sql.Tx, planID string, coverage []persistence.Coverage) error {
	for position, c := range coverage {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO plan_coverage (plan_id, position, type, amount, deductible) VALUES (?, ?, ?, ?, ?)`,
			planID, position, c.Type, c.Amount, c.Deductible,
		)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

const planSelect = `
	SELECT id, name, description, premium_amount, premium_frequency, term_duration, term_unit, is_active, created_by, created_at, updated_at
	FROM plans
`

func scanPlan(row rowScanner) (persistence.Plan, error) {
	var (
		plan      persistence.Plan
		isActive  int
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.PremiumAmount,
		&plan.PremiumFrequency,
		&plan.TermDuration,
		&plan.TermUnit,
		&isActive,
		&plan.CreatedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Plan{}, persistence.ErrNotFound
		}
		return persistence.Plan{}, mapError(err)
	}
	plan.IsActive = isActive != 0
	if plan.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Plan{}, fmt.Errorf("parse created_at: %w", err)
	}
	if plan.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Plan{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return plan, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ persistence.PlanRepository = (*PlanRepository)(nil)
