package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/brokerage/internal/application"
)

type planService interface {
	CreatePlan(ctx context.Context, principal application.Principal, input application.PlanInput) (application.Plan, error)
	UpdatePlan(ctx context.Context, principal application.Principal, planID string, input application.PlanInput) (application.Plan, error)
	GetPlan(ctx context.Context, planID string) (application.Plan, error)
	ListPlans(ctx context.Context, principal application.Principal) ([]application.Plan, error)
	DeletePlan(ctx context.Context, principal application.Principal, planID string) error
}

type PlanHandler struct {
	service   planService
	responder responder
	logger    *slog.Logger
}

func NewPlanHandler(service planService, logger *slog.Logger) *PlanHandler {
	base := defaultLogger(logger)
	return &PlanHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PlanHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PlanHandler", operation, attrs...)
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode plan request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "actor_id", principal.UserID)

	plan, err := h.service.CreatePlan(r.Context(), principal, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create plan", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("plan_id", plan.ID).InfoContext(r.Context(), "plan created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toPlanDTO(plan))
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	planID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(planID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode plan request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Update", "plan_id", planID, "actor_id", principal.UserID)

	plan, err := h.service.UpdatePlan(r.Context(), principal, planID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update plan", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "plan updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPlanDTO(plan))
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	planID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(planID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	plan, err := h.service.GetPlan(r.Context(), planID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPlanDTO(plan))
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	plans, err := h.service.ListPlans(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPlansResponse{Plans: toPlanDTOs(plans)})
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	planID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(planID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "plan_id", planID, "actor_id", principal.UserID)

	if err := h.service.DeletePlan(r.Context(), principal, planID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete plan", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "plan deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type planRequest struct {
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Coverage         []coverageDTO `json:"coverage"`
	PremiumAmount    float64       `json:"premium_amount"`
	PremiumFrequency string        `json:"premium_frequency"`
	TermDuration     int           `json:"term_duration"`
	TermUnit         string        `json:"term_unit"`
	IsActive         *bool         `json:"is_active"`
}

func (r planRequest) toInput() application.PlanInput {
	coverage := make([]application.Coverage, 0, len(r.Coverage))
	for _, line := range r.Coverage {
		coverage = append(coverage, application.Coverage{
			Type:       strings.TrimSpace(line.Type),
			Amount:     line.Amount,
			Deductible: line.Deductible,
		})
	}

	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	return application.PlanInput{
		Name:             strings.TrimSpace(r.Name),
		Description:      strings.TrimSpace(r.Description),
		Coverage:         coverage,
		PremiumAmount:    r.PremiumAmount,
		PremiumFrequency: strings.TrimSpace(r.PremiumFrequency),
		TermDuration:     r.TermDuration,
		TermUnit:         strings.TrimSpace(r.TermUnit),
		IsActive:         active,
	}
}

type listPlansResponse struct {
	Plans []planDTO `json:"plans"`
}

type coverageDTO struct {
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Deductible float64 `json:"deductible"`
}

type planDTO struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Coverage         []coverageDTO `json:"coverage"`
	PremiumAmount    float64       `json:"premium_amount"`
	PremiumFrequency string        `json:"premium_frequency"`
	TermDuration     int           `json:"term_duration"`
	TermUnit         string        `json:"term_unit"`
	IsActive         bool          `json:"is_active"`
	CreatedBy        string        `json:"created_by"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
}

func toPlanDTO(plan application.Plan) planDTO {
	coverage := make([]coverageDTO, 0, len(plan.Coverage))
	for _, line := range plan.Coverage {
		coverage = append(coverage, coverageDTO{
			Type:       line.Type,
			Amount:     line.Amount,
			Deductible: line.Deductible,
		})
	}

	return planDTO{
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
		CreatedAt:        plan.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        plan.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toPlanDTOs(plans []application.Plan) []planDTO {
	if len(plans) == 0 {
		return nil
	}
	out := make([]planDTO, 0, len(plans))
	for _, plan := range plans {
		out = append(out, toPlanDTO(plan))
	}
	return out
}
