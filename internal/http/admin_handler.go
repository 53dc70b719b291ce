package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/brokerage/internal/application"
)

type adminService interface {
	Stats(ctx context.Context, principal application.Principal) (application.Stats, error)
	UpdateUserStatus(ctx context.Context, params application.UpdateUserStatusParams) (application.User, error)
}

type AdminHandler struct {
	service   adminService
	responder responder
	logger    *slog.Logger
}

func NewAdminHandler(service adminService, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	stats, err := h.service.Stats(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, statsDTO{
		Customers:             stats.Customers,
		Agents:                stats.Agents,
		ScheduledAppointments: stats.ScheduledAppointments,
		CompletedAppointments: stats.CompletedAppointments,
		CancelledAppointments: stats.CancelledAppointments,
		ActivePlans:           stats.ActivePlans,
	})
}

func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req userStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateUserStatus", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode status update request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateUserStatus", "user_id", userID, "status", req.Status)

	user, err := h.service.UpdateUserStatus(r.Context(), application.UpdateUserStatusParams{
		Principal: principal,
		UserID:    userID,
		Status:    strings.TrimSpace(strings.ToLower(req.Status)),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update user status", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user status updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

type userStatusRequest struct {
	Status string `json:"status"`
}

type statsDTO struct {
	Customers             int `json:"customers"`
	Agents                int `json:"agents"`
	ScheduledAppointments int `json:"scheduled_appointments"`
	CompletedAppointments int `json:"completed_appointments"`
	CancelledAppointments int `json:"cancelled_appointments"`
	ActivePlans           int `json:"active_plans"`
}
