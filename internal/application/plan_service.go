package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

var (
	premiumFrequencies = map[string]struct{}{"MONTHLY": {}, "QUARTERLY": {}, "ANNUALLY": {}}
	termUnits          = map[string]struct{}{"MONTHS": {}, "YEARS": {}}
	coverageTypes      = map[string]struct{}{"HEALTH": {}, "LIFE": {}, "AUTO": {}, "HOME": {}, "DISABILITY": {}}
)

// PlanService manages the insurance plan catalog. Mutations are restricted to
// administrators; reads are open to any authenticated principal.
type PlanService struct {
	plans       persistence.PlanRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPlanService wires dependencies for plan catalog operations.
func NewPlanService(plans persistence.PlanRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PlanService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PlanService{plans: plans, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// CreatePlan validates and persists a new catalog entry for administrators.
func (s *PlanService) CreatePlan(ctx context.Context, principal Principal, input PlanInput) (Plan, error) {
	if s == nil {
		return Plan{}, fmt.Errorf("PlanService is nil")
	}
	if !principal.IsAdmin() {
		return Plan{}, ErrUnauthorized
	}
	if s.plans == nil {
		return Plan{}, fmt.Errorf("plan repository not configured")
	}

	vErr := validatePlanInput(input)
	if vErr.HasErrors() {
		return Plan{}, vErr
	}

	createdAt := s.now()
	plan := persistence.Plan{
		ID:               s.idGenerator(),
		Name:             input.Name,
		Description:      input.Description,
		Coverage:         toPersistenceCoverage(input.Coverage),
		PremiumAmount:    input.PremiumAmount,
		PremiumFrequency: input.PremiumFrequency,
		TermDuration:     input.TermDuration,
		TermUnit:         input.TermUnit,
		IsActive:         input.IsActive,
		CreatedBy:        principal.UserID,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}

	if err := s.plans.CreatePlan(ctx, plan); err != nil {
		return Plan{}, mapRepoError(err)
	}
	return toPlanView(plan), nil
}

// UpdatePlan validates and persists changes to an existing plan.
func (s *PlanService) UpdatePlan(ctx context.Context, principal Principal, planID string, input PlanInput) (Plan, error) {
	if s == nil {
		return Plan{}, fmt.Errorf("PlanService is nil")
	}
	if !principal.IsAdmin() {
		return Plan{}, ErrUnauthorized
	}
	if s.plans == nil {
		return Plan{}, fmt.Errorf("plan repository not configured")
	}

	existing, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return Plan{}, mapRepoError(err)
	}

	vErr := validatePlanInput(input)
	if vErr.HasErrors() {
		return Plan{}, vErr
	}

	updated := existing
	updated.Name = input.Name
	updated.Description = input.Description
	updated.Coverage = toPersistenceCoverage(input.Coverage)
	updated.PremiumAmount = input.PremiumAmount
	updated.PremiumFrequency = input.PremiumFrequency
	updated.TermDuration = input.TermDuration
	updated.TermUnit = input.TermUnit
	updated.IsActive = input.IsActive
	updated.UpdatedAt = s.now()

	if err := s.plans.UpdatePlan(ctx, updated); err != nil {
		return Plan{}, mapRepoError(err)
	}
	return toPlanView(updated), nil
}

// GetPlan returns a single catalog entry.
func (s *PlanService) GetPlan(ctx context.Context, planID string) (Plan, error) {
	if s == nil {
		return Plan{}, fmt.Errorf("PlanService is nil")
	}
	if s.plans == nil {
		return Plan{}, fmt.Errorf("plan repository not configured")
	}

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return Plan{}, mapRepoError(err)
	}
	return toPlanView(plan), nil
}

// ListPlans returns catalog entries. Administrators see the whole catalog;
// everyone else sees active plans only.
func (s *PlanService) ListPlans(ctx context.Context, principal Principal) ([]Plan, error) {
	if s == nil {
		return nil, fmt.Errorf("PlanService is nil")
	}
	if s.plans == nil {
		return nil, nil
	}

	stored, err := s.plans.ListPlans(ctx, !principal.IsAdmin())
	if err != nil {
		return nil, err
	}

	plans := make([]Plan, 0, len(stored))
	for _, plan := range stored {
		plans = append(plans, toPlanView(plan))
	}
	return plans, nil
}

// DeletePlan removes a catalog entry for administrators.
func (s *PlanService) DeletePlan(ctx context.Context, principal Principal, planID string) error {
	if s == nil {
		return fmt.Errorf("PlanService is nil")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if s.plans == nil {
		return fmt.Errorf("plan repository not configured")
	}
	return mapRepoError(s.plans.DeletePlan(ctx, planID))
}

func validatePlanInput(input PlanInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if len(input.Description) > 1000 {
		vErr.add("description", "description must be at most 1000 characters")
	}
	if input.PremiumAmount < 0 {
		vErr.add("premium_amount", "premium amount cannot be negative")
	}
	if _, ok := premiumFrequencies[input.PremiumFrequency]; !ok {
		vErr.add("premium_frequency", "premium frequency must be MONTHLY, QUARTERLY, or ANNUALLY")
	}
	if input.TermDuration < 1 {
		vErr.add("term_duration", "term duration must be at least 1")
	}
	if _, ok := termUnits[input.TermUnit]; !ok {
		vErr.add("term_unit", "term unit must be MONTHS or YEARS")
	}
	if len(input.Coverage) == 0 {
		vErr.add("coverage", "at least one coverage line is required")
	}
	for i, coverage := range input.Coverage {
		field := fmt.Sprintf("coverage[%d]", i)
		if _, ok := coverageTypes[coverage.Type]; !ok {
			vErr.add(field+".type", "unknown coverage type")
		}
		if coverage.Amount < 0 {
			vErr.add(field+".amount", "amount cannot be negative")
		}
		if coverage.Deductible < 0 {
			vErr.add(field+".deductible", "deductible cannot be negative")
		}
	}

	return vErr
}

func toPersistenceCoverage(coverage []Coverage) []persistence.Coverage {
	out := make([]persistence.Coverage, 0, len(coverage))
	for _, c := range coverage {
		out = append(out, persistence.Coverage{Type: c.Type, Amount: c.Amount, Deductible: c.Deductible})
	}
	return out
}

func toPlanView(plan persistence.Plan) Plan {
	coverage := make([]Coverage, 0, len(plan.Coverage))
	for _, c := range plan.Coverage {
		coverage = append(coverage, Coverage{Type: c.Type, Amount: c.Amount, Deductible: c.Deductible})
	}
	return Plan{
		ID:               plan.ID,
		Name:             plan.Name,
		Description:      plan.Description,
		Coverage:         coverage,
		PremiumAmount:    plan.PremiumAmount,
		PremiumFrequency: plan.PremiumFrequency,
		TermDuration:     plan.TermDuration,
		TermUnit:         plan.TermUnit,
		IsActive:         plan.IsActive,
		CreatedBy:        plan.CreatedBy,
		CreatedAt:        plan.CreatedAt,
		UpdatedAt:        plan.UpdatedAt,
	}
}
