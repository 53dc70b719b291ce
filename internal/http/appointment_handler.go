package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/brokerage/internal/application"
)

type appointmentService interface {
	Schedule(ctx context.Context, params application.ScheduleAppointmentParams) (application.AppointmentDetails, error)
	GetAppointment(ctx context.Context, principal application.Principal, appointmentID string) (application.Appointment, error)
	UpdateStatus(ctx context.Context, params application.UpdateStatusParams) (application.Appointment, error)
	ListForCustomer(ctx context.Context, params application.ListAppointmentsParams) (application.AppointmentPage, error)
	ListForAgent(ctx context.Context, params application.ListAppointmentsParams) (application.AppointmentPage, error)
}

type AppointmentHandler struct {
	service   appointmentService
	responder responder
	logger    *slog.Logger
}

func NewAppointmentHandler(service appointmentService, logger *slog.Logger) *AppointmentHandler {
	base := defaultLogger(logger)
	return &AppointmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AppointmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AppointmentHandler", operation, attrs...)
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode appointment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "agent_id", req.AgentID, "actor_id", principal.UserID)

	details, err := h.service.Schedule(r.Context(), req.toParams(principal))
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to schedule appointment", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("appointment_id", details.ID).InfoContext(r.Context(), "appointment scheduled")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAppointmentDetailsDTO(details))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(appointmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	appointment, err := h.service.GetAppointment(r.Context(), principal, appointmentID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appointment))
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(appointmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateStatus", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode status update request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateStatus", "appointment_id", appointmentID, "status", req.Status, "actor_id", principal.UserID)

	appointment, err := h.service.UpdateStatus(r.Context(), application.UpdateStatusParams{
		Principal:     principal,
		AppointmentID: appointmentID,
		Status:        strings.TrimSpace(req.Status),
		Notes:         req.Notes,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update appointment status", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment status updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appointment))
}

func (h *AppointmentHandler) ListForCustomer(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *AppointmentHandler) ListForAgent(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request, forAgent bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	subjectID, ok := SubjectIDFromContext(r.Context())
	if !ok || strings.TrimSpace(subjectID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := buildListParams(r.URL.Query(), principal, subjectID)

	var (
		page application.AppointmentPage
		err  error
	)
	if forAgent {
		page, err = h.service.ListForAgent(r.Context(), params)
	} else {
		page, err = h.service.ListForCustomer(r.Context(), params)
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentPageDTO(page))
}

type appointmentRequest struct {
	CustomerID string  `json:"customer_id"`
	AgentID    string  `json:"agent_id"`
	DateTime   string  `json:"date_time"`
	Purpose    string  `json:"purpose"`
	Notes      *string `json:"notes"`
}

func (r appointmentRequest) toParams(principal application.Principal) application.ScheduleAppointmentParams {
	return application.ScheduleAppointmentParams{
		Principal:  principal,
		CustomerID: strings.TrimSpace(r.CustomerID),
		AgentID:    strings.TrimSpace(r.AgentID),
		DateTime:   parseTime(r.DateTime),
		Purpose:    strings.TrimSpace(r.Purpose),
		Notes:      r.Notes,
	}
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type statusUpdateRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type appointmentDetailsDTO struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	AgentID    string `json:"agent_id"`
	DateTime   string `json:"date_time"`
	EndTime    string `json:"end_time"`
	Status     string `json:"status"`
	Purpose    string `json:"purpose"`
}

func toAppointmentDetailsDTO(details application.AppointmentDetails) appointmentDetailsDTO {
	return appointmentDetailsDTO{
		ID:         details.ID,
		CustomerID: details.CustomerID,
		AgentID:    details.AgentID,
		DateTime:   details.DateTime.UTC().Format(time.RFC3339),
		EndTime:    details.EndTime.UTC().Format(time.RFC3339),
		Status:     details.Status,
		Purpose:    details.Purpose,
	}
}

type appointmentDTO struct {
	ID         string  `json:"id"`
	CustomerID string  `json:"customer_id"`
	AgentID    string  `json:"agent_id"`
	DateTime   string  `json:"date_time"`
	EndTime    string  `json:"end_time"`
	Status     string  `json:"status"`
	Purpose    string  `json:"purpose"`
	Notes      *string `json:"notes,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func toAppointmentDTO(appointment application.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:         appointment.ID,
		CustomerID: appointment.CustomerID,
		AgentID:    appointment.AgentID,
		DateTime:   appointment.DateTime.UTC().Format(time.RFC3339),
		EndTime:    appointment.EndTime.UTC().Format(time.RFC3339),
		Status:     appointment.Status,
		Purpose:    appointment.Purpose,
		Notes:      appointment.Notes,
		CreatedAt:  appointment.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  appointment.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type appointmentListItemDTO struct {
	ID           string   `json:"id"`
	DateTime     string   `json:"date_time"`
	Status       string   `json:"status"`
	Counterparty partyDTO `json:"counterparty"`
	Purpose      string   `json:"purpose"`
}

type partyDTO struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type paginationDTO struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type appointmentPageDTO struct {
	Appointments []appointmentListItemDTO `json:"appointments"`
	Pagination   paginationDTO            `json:"pagination"`
}

func toAppointmentPageDTO(page application.AppointmentPage) appointmentPageDTO {
	items := make([]appointmentListItemDTO, 0, len(page.Appointments))
	for _, item := range page.Appointments {
		items = append(items, appointmentListItemDTO{
			ID:       item.ID,
			DateTime: item.DateTime.UTC().Format(time.RFC3339),
			Status:   item.Status,
			Counterparty: partyDTO{
				ID:       item.Counterparty.ID,
				FullName: item.Counterparty.FullName,
			},
			Purpose: item.Purpose,
		})
	}

	return appointmentPageDTO{
		Appointments: items,
		Pagination: paginationDTO{
			Total: page.Pagination.Total,
			Page:  page.Pagination.Page,
			Pages: page.Pagination.Pages,
		},
	}
}

func buildListParams(values url.Values, principal application.Principal, subjectID string) application.ListAppointmentsParams {
	params := application.ListAppointmentsParams{
		Principal: principal,
		SubjectID: subjectID,
		Status:    strings.TrimSpace(values.Get("status")),
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil {
		params.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil {
		params.Limit = limit
	}

	return params
}
