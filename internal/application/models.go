package application

import "time"

// Roles assignable to user accounts.
const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
	RoleAdmin    = "admin"
)

// Account statuses. Disabled accounts keep their data but cannot authenticate.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Appointment lifecycle statuses. RESCHEDULED exists in the stored enum but is
// reachable only through administrative data correction, not the public
// status-update surface.
const (
	StatusScheduled   = "SCHEDULED"
	StatusCompleted   = "COMPLETED"
	StatusCancelled   = "CANCELLED"
	StatusRescheduled = "RESCHEDULED"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User represents an account exposed by the application services.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the user's name parts for display.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RegisterUserInput captures caller provided registration fields.
type RegisterUserInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Role           string
	Specialization string
	Experience     int
}

// RegisterUserResult carries the created account and, for agent registrations,
// the agent profile created alongside it.
type RegisterUserResult struct {
	User  User
	Agent *Agent
}

// AvailabilitySlot is one bookable window expressed as 24-hour HH:MM wall-clock times.
type AvailabilitySlot struct {
	StartTime string
	EndTime   string
}

// AvailabilityEntry groups the slots declared for one day of the week.
type AvailabilityEntry struct {
	Day   string
	Slots []AvailabilitySlot
}

// Agent represents an agent profile with its weekly availability.
type Agent struct {
	ID             string
	UserID         string
	FullName       string
	Specialization string
	Experience     int
	Rating         float64
	TotalRatings   int
	Status         string
	Availability   []AvailabilityEntry
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UpdateAgentProfileParams wraps the editable fields of an agent profile.
// Rating fields are derived data and cannot be set directly.
type UpdateAgentProfileParams struct {
	Principal      Principal
	AgentID        string
	Specialization string
	Experience     int
	Status         string
}

// SetAvailabilityParams wraps the data required to replace an agent's weekly availability.
type SetAvailabilityParams struct {
	Principal Principal
	AgentID   string
	Entries   []AvailabilityEntry
}

// ScheduleAppointmentParams wraps the data required to book an appointment.
type ScheduleAppointmentParams struct {
	Principal  Principal
	CustomerID string
	AgentID    string
	DateTime   time.Time
	Purpose    string
	Notes      *string
}

// AppointmentDetails is the view returned on creation. Notes are accepted on
// input but intentionally omitted here.
type AppointmentDetails struct {
	ID         string
	CustomerID string
	AgentID    string
	DateTime   time.Time
	EndTime    time.Time
	Status     string
	Purpose    string
}

// Appointment is the full view returned by lookups and status updates.
type Appointment struct {
	ID         string
	CustomerID string
	AgentID    string
	DateTime   time.Time
	EndTime    time.Time
	Status     string
	Purpose    string
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Party identifies the counterparty shown in appointment listings.
type Party struct {
	ID       string
	FullName string
}

// AppointmentListItem is one row of a shaped appointment listing. Counterparty
// is the other side of the booking relative to the subject of the listing.
type AppointmentListItem struct {
	ID           string
	DateTime     time.Time
	Status       string
	Counterparty Party
	Purpose      string
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total int
	Page  int
	Pages int
}

// AppointmentPage pairs a page of shaped listings with its pagination envelope.
type AppointmentPage struct {
	Appointments []AppointmentListItem
	Pagination   Pagination
}

// ListAppointmentsParams wraps the data required to list appointments for a
// customer or an agent.
type ListAppointmentsParams struct {
	Principal Principal
	SubjectID string
	Status    string
	Page      int
	Limit     int
}

// UpdateStatusParams wraps the data required to change an appointment's status.
type UpdateStatusParams struct {
	Principal     Principal
	AppointmentID string
	Status        string
	Notes         *string
}

// Coverage is one coverage line attached to an insurance plan.
type Coverage struct {
	Type       string
	Amount     float64
	Deductible float64
}

// PlanInput captures caller provided plan fields.
type PlanInput struct {
	Name             string
	Description      string
	Coverage         []Coverage
	PremiumAmount    float64
	PremiumFrequency string
	TermDuration     int
	TermUnit         string
	IsActive         bool
}

// Plan represents a catalog entry for an insurance plan.
type Plan struct {
	ID               string
	Name             string
	Description      string
	Coverage         []Coverage
	PremiumAmount    float64
	PremiumFrequency string
	TermDuration     int
	TermUnit         string
	IsActive         bool
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NotificationInput captures the fields of a notification to dispatch.
type NotificationInput struct {
	RecipientID string
	Type        string
	Title       string
	Message     string
	Channels    []string
}

// Notification represents a stored notification exposed to its recipient.
type Notification struct {
	ID          string
	RecipientID string
	Type        string
	Title       string
	Message     string
	Channels    []string
	Read        bool
	CreatedAt   time.Time
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// UpdateUserStatusParams wraps the data required to enable or disable an account.
type UpdateUserStatusParams struct {
	Principal Principal
	UserID    string
	Status    string
}

// Stats aggregates the counters shown on the administrative dashboard.
type Stats struct {
	Customers             int
	Agents                int
	ScheduledAppointments int
	CompletedAppointments int
	CancelledAppointments int
	ActivePlans           int
}
