package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CountUsersByRole(ctx context.Context, role string) (int, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AgentRepository stores agent profiles and their weekly availability.
type AgentRepository interface {
	CreateAgent(ctx context.Context, agent Agent) error
	UpdateAgent(ctx context.Context, agent Agent) error
	GetAgent(ctx context.Context, id string) (Agent, error)
	GetAgentByUserID(ctx context.Context, userID string) (Agent, error)
	ListAgents(ctx context.Context, status string) ([]Agent, error)
	// ReplaceAvailability removes every stored entry for the agent and writes
	// the provided set in a single transaction.
	ReplaceAvailability(ctx context.Context, agentID string, entries []AvailabilityEntry) error
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	Status string
	Page   int
	Limit  int
}

// AppointmentRepository is the authoritative record of appointment intervals.
type AppointmentRepository interface {
	// CreateAppointment inserts the appointment after re-checking, inside the
	// same transaction, that no non-cancelled appointment for the agent
	// overlaps [DateTime, EndTime). Returns ErrConflict when the slot was
	// taken between the caller's availability check and the insert.
	CreateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	// FindOverlapping returns any appointment for the agent whose status is
	// not CANCELLED and whose interval intersects [start, end). A nil result
	// with a nil error means the slot is free.
	FindOverlapping(ctx context.Context, agentID string, start, end time.Time) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id, status string, notes *string, updatedAt time.Time) (Appointment, error)
	// ListForCustomer and ListForAgent return one page ordered by DateTime
	// ascending along with the unpaged total for the filter.
	ListForCustomer(ctx context.Context, customerID string, filter AppointmentFilter) ([]Appointment, int, error)
	ListForAgent(ctx context.Context, agentID string, filter AppointmentFilter) ([]Appointment, int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

// PlanRepository exposes CRUD operations for the insurance plan catalog.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan Plan) error
	UpdatePlan(ctx context.Context, plan Plan) error
	GetPlan(ctx context.Context, id string) (Plan, error)
	ListPlans(ctx context.Context, onlyActive bool) ([]Plan, error)
	DeletePlan(ctx context.Context, id string) error
	CountActivePlans(ctx context.Context) (int, error)
}

// NotificationRepository stores notification records per recipient.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, id, recipientID string, readAt time.Time) (Notification, error)
}
