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

type agentService interface {
	GetAgent(ctx context.Context, agentID string) (application.Agent, error)
	ListAgents(ctx context.Context, status string) ([]application.Agent, error)
	UpdateProfile(ctx context.Context, params application.UpdateAgentProfileParams) (application.Agent, error)
	SetAvailability(ctx context.Context, params application.SetAvailabilityParams) error
}

type AgentHandler struct {
	service   agentService
	responder responder
	logger    *slog.Logger
}

func NewAgentHandler(service agentService, logger *slog.Logger) *AgentHandler {
	base := defaultLogger(logger)
	return &AgentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AgentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AgentHandler", operation, attrs...)
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))

	agents, err := h.service.ListAgents(r.Context(), status)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAgentsResponse{Agents: toAgentDTOs(agents)})
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	agentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(agentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	agent, err := h.service.GetAgent(r.Context(), agentID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAgentDTO(agent))
}

func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	agentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(agentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req agentProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode profile request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Update", "agent_id", agentID, "actor_id", principal.UserID)

	agent, err := h.service.UpdateProfile(r.Context(), application.UpdateAgentProfileParams{
		Principal:      principal,
		AgentID:        agentID,
		Specialization: strings.TrimSpace(req.Specialization),
		Experience:     req.Experience,
		Status:         strings.TrimSpace(strings.ToLower(req.Status)),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update profile", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "profile updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAgentDTO(agent))
}

func (h *AgentHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	agentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(agentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetAvailability", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode availability request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "SetAvailability", "agent_id", agentID, "actor_id", principal.UserID)

	err := h.service.SetAvailability(r.Context(), application.SetAvailabilityParams{
		Principal: principal,
		AgentID:   agentID,
		Entries:   req.toEntries(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to replace availability", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	agent, err := h.service.GetAgent(r.Context(), agentID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "availability replaced")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAgentDTO(agent))
}

type agentProfileRequest struct {
	Specialization string `json:"specialization"`
	Experience     int    `json:"experience"`
	Status         string `json:"status"`
}

type availabilityRequest struct {
	Availability []availabilityEntryDTO `json:"availability"`
}

func (r availabilityRequest) toEntries() []application.AvailabilityEntry {
	if len(r.Availability) == 0 {
		return nil
	}
	entries := make([]application.AvailabilityEntry, 0, len(r.Availability))
	for _, entry := range r.Availability {
		slots := make([]application.AvailabilitySlot, 0, len(entry.Slots))
		for _, slot := range entry.Slots {
			slots = append(slots, application.AvailabilitySlot{
				StartTime: strings.TrimSpace(slot.StartTime),
				EndTime:   strings.TrimSpace(slot.EndTime),
			})
		}
		entries = append(entries, application.AvailabilityEntry{
			Day:   strings.TrimSpace(entry.Day),
			Slots: slots,
		})
	}
	return entries
}

type availabilityEntryDTO struct {
	Day   string                `json:"day"`
	Slots []availabilitySlotDTO `json:"slots"`
}

type availabilitySlotDTO struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type listAgentsResponse struct {
	Agents []agentDTO `json:"agents"`
}

type agentDTO struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	FullName       string                 `json:"full_name"`
	Specialization string                 `json:"specialization"`
	Experience     int                    `json:"experience"`
	Rating         float64                `json:"rating"`
	TotalRatings   int                    `json:"total_ratings"`
	Status         string                 `json:"status"`
	Availability   []availabilityEntryDTO `json:"availability"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
}

func toAgentDTO(agent application.Agent) agentDTO {
	availability := make([]availabilityEntryDTO, 0, len(agent.Availability))
	for _, entry := range agent.Availability {
		slots := make([]availabilitySlotDTO, 0, len(entry.Slots))
		for _, slot := range entry.Slots {
			slots = append(slots, availabilitySlotDTO{StartTime: slot.StartTime, EndTime: slot.EndTime})
		}
		availability = append(availability, availabilityEntryDTO{Day: entry.Day, Slots: slots})
	}

	return agentDTO{
		ID:             agent.ID,
		UserID:         agent.UserID,
		FullName:       agent.FullName,
		Specialization: agent.Specialization,
		Experience:     agent.Experience,
		Rating:         agent.Rating,
		TotalRatings:   agent.TotalRatings,
		Status:         agent.Status,
		Availability:   availability,
		CreatedAt:      agent.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      agent.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toAgentDTOs(agents []application.Agent) []agentDTO {
	if len(agents) == 0 {
		return nil
	}
	out := make([]agentDTO, 0, len(agents))
	for _, agent := range agents {
		out = append(out, toAgentDTO(agent))
	}
	return out
}
