package testfixtures

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/brokerage/internal/persistence"
	"github.com/example/brokerage/internal/scheduler"
)

var (
	userCounter         uint64
	agentCounter        uint64
	appointmentCounter  uint64
	planCounter         uint64
	sessionCounter      uint64
	notificationCounter uint64
)

var referenceTime = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures a generated user record.
type UserOption func(*persistence.User)

// NewUser returns a deterministic customer account with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		FirstName:    "Test",
		LastName:     fmt.Sprintf("User%03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         "customer",
		Status:       "active",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithUserName overrides the generated name parts.
func WithUserName(first, last string) UserOption {
	return func(u *persistence.User) {
		u.FirstName = first
		u.LastName = last
	}
}

// WithUserRole overrides the generated role.
func WithUserRole(role string) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// WithUserStatus overrides the generated account status.
func WithUserStatus(status string) UserOption {
	return func(u *persistence.User) { u.Status = status }
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// AgentOption configures a generated agent profile.
type AgentOption func(*persistence.Agent)

// NewAgent returns a deterministic active agent profile owned by the given user.
func NewAgent(userID string, opts ...AgentOption) persistence.Agent {
	idx := atomic.AddUint64(&agentCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	agent := persistence.Agent{
		ID:             fmt.Sprintf("agent-%03d", idx),
		UserID:         userID,
		Specialization: "life",
		Experience:     5,
		Status:         "active",
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&agent)
	}
	return agent
}

// WithAgentID overrides the generated agent ID.
func WithAgentID(id string) AgentOption {
	return func(a *persistence.Agent) { a.ID = id }
}

// WithAgentStatus overrides the generated status.
func WithAgentStatus(status string) AgentOption {
	return func(a *persistence.Agent) { a.Status = status }
}

// WithAgentSpecialization overrides the generated specialization.
func WithAgentSpecialization(specialization string) AgentOption {
	return func(a *persistence.Agent) { a.Specialization = specialization }
}

// WithAgentAvailability sets the weekly availability on the profile.
func WithAgentAvailability(entries ...persistence.AvailabilityEntry) AgentOption {
	return func(a *persistence.Agent) { a.Availability = entries }
}

// BusinessHours returns a 09:00 to 17:00 availability entry for each of the
// provided days. Day names are normalized to the capitalized form stored in
// agent_availability, so "monday" and "Monday" are equivalent.
func BusinessHours(days ...string) []persistence.AvailabilityEntry {
	entries := make([]persistence.AvailabilityEntry, 0, len(days))
	for _, day := range days {
		entries = append(entries, persistence.AvailabilityEntry{
			Day:   canonicalDay(day),
			Slots: []persistence.AvailabilitySlot{{StartTime: "09:00", EndTime: "17:00"}},
		})
	}
	return entries
}

func canonicalDay(day string) string {
	trimmed := strings.TrimSpace(day)
	if trimmed == "" {
		return trimmed
	}
	return strings.ToUpper(trimmed[:1]) + strings.ToLower(trimmed[1:])
}

// AppointmentOption configures a generated appointment.
type AppointmentOption func(*persistence.Appointment)

// NewAppointment returns a deterministic scheduled appointment between the
// given customer and agent. Each generated appointment occupies its own slot
// so fixtures never collide unless a start time is set explicitly.
func NewAppointment(customerID, agentID string, opts ...AppointmentOption) persistence.Appointment {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	slot := scheduler.SlotAt(referenceTime.Add(24*time.Hour + time.Duration(idx)*2*time.Hour))
	appointment := persistence.Appointment{
		ID:         fmt.Sprintf("appt-%03d", idx),
		CustomerID: customerID,
		AgentID:    agentID,
		DateTime:   slot.Start,
		EndTime:    slot.End,
		Status:     "SCHEDULED",
		Purpose:    "policy review",
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&appointment)
	}
	return appointment
}

// WithAppointmentID overrides the generated appointment ID.
func WithAppointmentID(id string) AppointmentOption {
	return func(a *persistence.Appointment) { a.ID = id }
}

// WithAppointmentStart places the appointment in the slot containing the
// given instant.
func WithAppointmentStart(start time.Time) AppointmentOption {
	return func(a *persistence.Appointment) {
		slot := scheduler.SlotAt(start)
		a.DateTime = slot.Start
		a.EndTime = slot.End
	}
}

// WithAppointmentStatus overrides the generated status.
func WithAppointmentStatus(status string) AppointmentOption {
	return func(a *persistence.Appointment) { a.Status = status }
}

// WithAppointmentPurpose overrides the generated purpose.
func WithAppointmentPurpose(purpose string) AppointmentOption {
	return func(a *persistence.Appointment) { a.Purpose = purpose }
}

// WithAppointmentNotes sets the optional notes field.
func WithAppointmentNotes(notes string) AppointmentOption {
	return func(a *persistence.Appointment) { a.Notes = &notes }
}

// PlanOption configures a generated insurance plan.
type PlanOption func(*persistence.Plan)

// NewPlan returns a deterministic active plan created by the given administrator.
func NewPlan(createdBy string, opts ...PlanOption) persistence.Plan {
	idx := atomic.AddUint64(&planCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	plan := persistence.Plan{
		ID:          fmt.Sprintf("plan-%03d", idx),
		Name:        fmt.Sprintf("Plan %03d", idx),
		Description: "fixture plan",
		Coverage: []persistence.Coverage{
			{Type: "life", Amount: 100000, Deductible: 500},
		},
		PremiumAmount:    120,
		PremiumFrequency: "monthly",
		TermDuration:     10,
		TermUnit:         "years",
		IsActive:         true,
		CreatedBy:        createdBy,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	for _, opt := range opts {
		opt(&plan)
	}
	return plan
}

// WithPlanID overrides the generated plan ID.
func WithPlanID(id string) PlanOption {
	return func(p *persistence.Plan) { p.ID = id }
}

// WithPlanActive overrides the active flag.
func WithPlanActive(active bool) PlanOption {
	return func(p *persistence.Plan) { p.IsActive = active }
}

// WithPlanCoverage replaces the generated coverage lines.
func WithPlanCoverage(coverage ...persistence.Coverage) PlanOption {
	return func(p *persistence.Plan) { p.Coverage = coverage }
}

// SessionOption configures a generated session.
type SessionOption func(*persistence.Session)

// NewSession returns a deterministic unexpired session for the given user.
func NewSession(userID string, opts ...SessionOption) persistence.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	session := persistence.Session{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&session)
	}
	return session
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(s *persistence.Session) { s.Token = token }
}

// WithSessionExpiry overrides the generated expiry.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(s *persistence.Session) { s.ExpiresAt = expiresAt }
}

// NotificationOption configures a generated notification.
type NotificationOption func(*persistence.Notification)

// NewNotification returns a deterministic unread in-app notification for the
// given recipient.
func NewNotification(recipientID string, opts ...NotificationOption) persistence.Notification {
	idx := atomic.AddUint64(&notificationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	notification := persistence.Notification{
		ID:          fmt.Sprintf("notif-%03d", idx),
		RecipientID: recipientID,
		Type:        "APPOINTMENT_SCHEDULED",
		Title:       "Appointment Scheduled",
		Message:     "fixture notification",
		Channels:    []string{"IN_APP"},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&notification)
	}
	return notification
}

// WithNotificationRead marks the notification as read.
func WithNotificationRead(read bool) NotificationOption {
	return func(n *persistence.Notification) { n.Read = read }
}
