package persistence

import "time"

// User represents an account in the brokerage domain. Role is one of
// "customer", "agent" or "admin"; Status is "active" or "disabled".
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
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

// AvailabilitySlot is a single bookable window expressed as 24-hour HH:MM
// wall-clock times.
type AvailabilitySlot struct {
	StartTime string
	EndTime   string
}

// AvailabilityEntry groups the slots declared for one day of the week.
type AvailabilityEntry struct {
	Day   string
	Slots []AvailabilitySlot
}

// Agent represents an agent profile owned by exactly one user.
type Agent struct {
	ID             string
	UserID         string
	Specialization string
	Experience     int
	Rating         float64
	TotalRatings   int
	Status         string
	Availability   []AvailabilityEntry
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Appointment represents one booked interval between a customer and an agent.
// DateTime/EndTime form a half-open interval [DateTime, EndTime).
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

// Coverage is one coverage line attached to an insurance plan.
type Coverage struct {
	Type       string
	Amount     float64
	Deductible float64
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

// Notification represents a stored notification record for one recipient.
type Notification struct {
	ID          string
	RecipientID string
	Type        string
	Title       string
	Message     string
	Channels    []string
	Read        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
