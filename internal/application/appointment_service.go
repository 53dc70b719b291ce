package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/example/brokerage/internal/persistence"
	"github.com/example/brokerage/internal/scheduler"
)

// NotificationDispatcher delivers a notification after a state-changing
// operation. Dispatch failures never roll back the operation that triggered
// them.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, input NotificationInput) (Notification, error)
}

// AppointmentService orchestrates availability checks, appointment creation,
// and status transitions.
type AppointmentService struct {
	appointments  persistence.AppointmentRepository
	users         persistence.UserRepository
	notifications NotificationDispatcher
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewAppointmentService wires dependencies for appointment operations.
func NewAppointmentService(appointments persistence.AppointmentRepository, users persistence.UserRepository, notifications NotificationDispatcher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AppointmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{
		appointments:  appointments,
		users:         users,
		notifications: notifications,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AppointmentService", operation, attrs...)
}

// Schedule books a fixed-duration appointment for a customer with an agent.
// The slot must not overlap any non-cancelled appointment for the agent.
func (s *AppointmentService) Schedule(ctx context.Context, params ScheduleAppointmentParams) (details AppointmentDetails, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment repository not configured")
		return
	}

	customerID := params.CustomerID
	if customerID == "" {
		customerID = params.Principal.UserID
	}
	if customerID != params.Principal.UserID && !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	logger := s.loggerWith(ctx, "Schedule",
		"customer_id", customerID,
		"agent_id", params.AgentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "appointment booking failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("appointment_id", details.ID).InfoContext(ctx, "appointment booked")
	}()

	vErr := &ValidationError{}
	validateAppointmentCore(params, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureAgentBookable(ctx, params.AgentID); err != nil {
		return
	}

	slot := scheduler.SlotAt(params.DateTime)

	var existing *persistence.Appointment
	existing, err = s.appointments.FindOverlapping(ctx, params.AgentID, slot.Start, slot.End)
	if err != nil {
		return
	}
	if existing != nil {
		err = ErrConflict
		return
	}

	createdAt := s.now()
	appointment := persistence.Appointment{
		ID:         s.idGenerator(),
		CustomerID: customerID,
		AgentID:    params.AgentID,
		DateTime:   slot.Start,
		EndTime:    slot.End,
		Status:     StatusScheduled,
		Purpose:    strings.TrimSpace(params.Purpose),
		Notes:      params.Notes,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	if err = s.appointments.CreateAppointment(ctx, appointment); err != nil {
		// A concurrent booking can win the slot between the availability
		// check and the insert; the repository detects that inside its
		// transaction.
		if errors.Is(err, persistence.ErrConflict) {
			err = ErrConflict
		}
		return
	}

	s.notify(ctx, logger, NotificationInput{
		RecipientID: params.AgentID,
		Type:        "APPOINTMENT_REMINDER",
		Title:       "New appointment scheduled",
		Message:     fmt.Sprintf("An appointment was scheduled for %s.", slot.Start.Format(time.RFC3339)),
		Channels:    []string{"IN_APP"},
	})

	details = AppointmentDetails{
		ID:         appointment.ID,
		CustomerID: appointment.CustomerID,
		AgentID:    appointment.AgentID,
		DateTime:   appointment.DateTime,
		EndTime:    appointment.EndTime,
		Status:     appointment.Status,
		Purpose:    appointment.Purpose,
	}
	return
}

// UpdateStatus transitions an appointment to COMPLETED or CANCELLED. The
// acting principal must be an administrator or a party to the appointment.
// Repeat transitions are allowed; re-cancelling a cancelled appointment is
// not an error.
func (s *AppointmentService) UpdateStatus(ctx context.Context, params UpdateStatusParams) (view Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateStatus",
		"appointment_id", params.AppointmentID,
		"status", params.Status,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "status update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "status updated")
	}()

	var existing persistence.Appointment
	existing, err = s.appointments.GetAppointment(ctx, params.AppointmentID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	actor := params.Principal
	if !actor.IsAdmin() && actor.UserID != existing.CustomerID && actor.UserID != existing.AgentID {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if params.Status != StatusCompleted && params.Status != StatusCancelled {
		vErr.add("status", "status must be COMPLETED or CANCELLED")
	}
	if params.Notes != nil && len(*params.Notes) > 1000 {
		vErr.add("notes", "notes must be at most 1000 characters")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var updated persistence.Appointment
	updated, err = s.appointments.UpdateAppointmentStatus(ctx, params.AppointmentID, params.Status, params.Notes, s.now())
	if err != nil {
		err = mapRepoError(err)
		return
	}

	for _, recipient := range []string{updated.CustomerID, updated.AgentID} {
		if recipient == actor.UserID {
			continue
		}
		s.notify(ctx, logger, NotificationInput{
			RecipientID: recipient,
			Type:        "STATUS_UPDATE",
			Title:       "Appointment " + strings.ToLower(params.Status),
			Message:     fmt.Sprintf("The appointment on %s is now %s.", updated.DateTime.Format(time.RFC3339), updated.Status),
			Channels:    []string{"IN_APP"},
		})
	}

	view = toAppointmentView(updated)
	return
}

// GetAppointment returns a single appointment visible to the acting principal.
func (s *AppointmentService) GetAppointment(ctx context.Context, principal Principal, appointmentID string) (Appointment, error) {
	if s == nil {
		return Appointment{}, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return Appointment{}, fmt.Errorf("appointment repository not configured")
	}

	stored, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return Appointment{}, mapRepoError(err)
	}
	if !principal.IsAdmin() && principal.UserID != stored.CustomerID && principal.UserID != stored.AgentID {
		return Appointment{}, ErrUnauthorized
	}
	return toAppointmentView(stored), nil
}

// ListForCustomer returns a shaped page of the customer's appointments. Each
// entry names the agent side of the booking.
func (s *AppointmentService) ListForCustomer(ctx context.Context, params ListAppointmentsParams) (AppointmentPage, error) {
	return s.list(ctx, params, false)
}

// ListForAgent returns a shaped page of the agent's appointments. Each entry
// names the customer side of the booking.
func (s *AppointmentService) ListForAgent(ctx context.Context, params ListAppointmentsParams) (AppointmentPage, error) {
	return s.list(ctx, params, true)
}

func (s *AppointmentService) list(ctx context.Context, params ListAppointmentsParams, forAgent bool) (AppointmentPage, error) {
	if s == nil {
		return AppointmentPage{}, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return AppointmentPage{}, fmt.Errorf("appointment repository not configured")
	}

	if params.SubjectID != params.Principal.UserID && !params.Principal.IsAdmin() {
		return AppointmentPage{}, ErrUnauthorized
	}

	if params.Status != "" && !isKnownStatus(params.Status) {
		vErr := &ValidationError{}
		vErr.add("status", "unknown status filter")
		return AppointmentPage{}, vErr
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = 10
	}

	filter := persistence.AppointmentFilter{Status: params.Status, Page: page, Limit: limit}

	var (
		appointments []persistence.Appointment
		total        int
		err          error
	)
	if forAgent {
		appointments, total, err = s.appointments.ListForAgent(ctx, params.SubjectID, filter)
	} else {
		appointments, total, err = s.appointments.ListForCustomer(ctx, params.SubjectID, filter)
	}
	if err != nil {
		return AppointmentPage{}, err
	}

	items := make([]AppointmentListItem, 0, len(appointments))
	names := make(map[string]string)
	for _, appointment := range appointments {
		counterpartyID := appointment.AgentID
		if forAgent {
			counterpartyID = appointment.CustomerID
		}
		name, err := s.displayName(ctx, names, counterpartyID)
		if err != nil {
			return AppointmentPage{}, err
		}
		items = append(items, AppointmentListItem{
			ID:           appointment.ID,
			DateTime:     appointment.DateTime,
			Status:       appointment.Status,
			Counterparty: Party{ID: counterpartyID, FullName: name},
			Purpose:      appointment.Purpose,
		})
	}

	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}

	return AppointmentPage{
		Appointments: items,
		Pagination:   Pagination{Total: total, Page: page, Pages: pages},
	}, nil
}

func (s *AppointmentService) displayName(ctx context.Context, cache map[string]string, userID string) (string, error) {
	if name, ok := cache[userID]; ok {
		return name, nil
	}
	if s.users == nil {
		return "", nil
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			cache[userID] = ""
			return "", nil
		}
		return "", err
	}
	name := toUserView(user).FullName()
	cache[userID] = name
	return name, nil
}

func (s *AppointmentService) ensureAgentBookable(ctx context.Context, agentID string) error {
	if s.users == nil {
		return nil
	}
	user, err := s.users.GetUser(ctx, agentID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("agent_id", "agent does not exist")
			return vErr
		}
		return err
	}
	if user.Role != RoleAgent {
		vErr := &ValidationError{}
		vErr.add("agent_id", "agent does not exist")
		return vErr
	}
	return nil
}

func (s *AppointmentService) notify(ctx context.Context, logger *slog.Logger, input NotificationInput) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Dispatch(ctx, input); err != nil {
		logger.WarnContext(ctx, "notification dispatch failed", "error", err, "recipient_id", input.RecipientID)
	}
}

func validateAppointmentCore(params ScheduleAppointmentParams, vErr *ValidationError) {
	if params.AgentID == "" {
		vErr.add("agent_id", "agent is required")
	}
	if params.DateTime.IsZero() {
		vErr.add("date_time", "date_time is required")
	}
	purpose := strings.TrimSpace(params.Purpose)
	if purpose == "" {
		vErr.add("purpose", "purpose is required")
	} else if len(purpose) > 500 {
		vErr.add("purpose", "purpose must be at most 500 characters")
	}
	if params.Notes != nil && len(*params.Notes) > 1000 {
		vErr.add("notes", "notes must be at most 1000 characters")
	}
}

func isKnownStatus(status string) bool {
	switch status {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

func toAppointmentView(appointment persistence.Appointment) Appointment {
	return Appointment{
		ID:         appointment.ID,
		CustomerID: appointment.CustomerID,
		AgentID:    appointment.AgentID,
		DateTime:   appointment.DateTime,
		EndTime:    appointment.EndTime,
		Status:     appointment.Status,
		Purpose:    appointment.Purpose,
		Notes:      appointment.Notes,
		CreatedAt:  appointment.CreatedAt,
		UpdatedAt:  appointment.UpdatedAt,
	}
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConflict):
		return ErrConflict
	}
	return err
}
