package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// AgentService manages agent profiles and their declared weekly availability.
// Availability is descriptive only; booking conflicts are decided against
// existing appointments, not declared windows.
type AgentService struct {
	agents persistence.AgentRepository
	users  persistence.UserRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewAgentService wires dependencies for agent operations.
func NewAgentService(agents persistence.AgentRepository, users persistence.UserRepository, now func() time.Time, logger *slog.Logger) *AgentService {
	if now == nil {
		now = time.Now
	}
	return &AgentService{agents: agents, users: users, now: now, logger: defaultLogger(logger)}
}

// GetAgent returns a single agent profile with its availability.
func (s *AgentService) GetAgent(ctx context.Context, agentID string) (Agent, error) {
	if s == nil {
		return Agent{}, fmt.Errorf("AgentService is nil")
	}
	if s.agents == nil {
		return Agent{}, fmt.Errorf("agent repository not configured")
	}

	stored, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		return Agent{}, mapRepoError(err)
	}
	return s.toAgentView(ctx, stored)
}

// ListAgents returns agent profiles, optionally filtered by status.
func (s *AgentService) ListAgents(ctx context.Context, status string) ([]Agent, error) {
	if s == nil {
		return nil, fmt.Errorf("AgentService is nil")
	}
	if s.agents == nil {
		return nil, nil
	}

	stored, err := s.agents.ListAgents(ctx, status)
	if err != nil {
		return nil, err
	}

	agents := make([]Agent, 0, len(stored))
	for _, agent := range stored {
		view, err := s.toAgentView(ctx, agent)
		if err != nil {
			return nil, err
		}
		agents = append(agents, view)
	}
	return agents, nil
}

var agentStatuses = []string{"active", "inactive", "on_leave"}

// UpdateProfile edits the agent's specialization, experience, and status. Only
// the owning agent or an administrator may change it.
func (s *AgentService) UpdateProfile(ctx context.Context, params UpdateAgentProfileParams) (agent Agent, err error) {
	if s == nil {
		err = fmt.Errorf("AgentService is nil")
		return
	}
	if s.agents == nil {
		err = fmt.Errorf("agent repository not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "AgentService", "UpdateProfile", "agent_id", params.AgentID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "profile update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "profile updated")
	}()

	var existing persistence.Agent
	existing, err = s.agents.GetAgent(ctx, params.AgentID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if !params.Principal.IsAdmin() && params.Principal.UserID != existing.UserID {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Specialization) == "" {
		vErr.add("specialization", "specialization is required")
	}
	if params.Experience < 0 {
		vErr.add("experience", "experience cannot be negative")
	}
	if !isAgentStatus(params.Status) {
		vErr.add("status", "status must be active, inactive or on_leave")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	existing.Specialization = strings.TrimSpace(params.Specialization)
	existing.Experience = params.Experience
	existing.Status = params.Status
	existing.UpdatedAt = s.now()

	if err = s.agents.UpdateAgent(ctx, existing); err != nil {
		err = mapRepoError(err)
		return
	}

	agent, err = s.toAgentView(ctx, existing)
	return
}

func isAgentStatus(status string) bool {
	for _, candidate := range agentStatuses {
		if status == candidate {
			return true
		}
	}
	return false
}

// SetAvailability wholesale-replaces an agent's weekly availability. Only the
// owning agent or an administrator may change it.
func (s *AgentService) SetAvailability(ctx context.Context, params SetAvailabilityParams) (err error) {
	if s == nil {
		return fmt.Errorf("AgentService is nil")
	}
	if s.agents == nil {
		return fmt.Errorf("agent repository not configured")
	}

	logger := serviceLogger(ctx, s.logger, "AgentService", "SetAvailability", "agent_id", params.AgentID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "availability update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "availability replaced")
	}()

	var existing persistence.Agent
	existing, err = s.agents.GetAgent(ctx, params.AgentID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if !params.Principal.IsAdmin() && params.Principal.UserID != existing.UserID {
		err = ErrUnauthorized
		return
	}

	vErr := validateAvailability(params.Entries)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = mapRepoError(s.agents.ReplaceAvailability(ctx, params.AgentID, toPersistenceAvailability(params.Entries)))
	return
}

// validateAvailability rejects repeated day values, malformed HH:MM values,
// and slots whose start is not strictly before their end.
func validateAvailability(entries []AvailabilityEntry) *ValidationError {
	vErr := &ValidationError{}
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		field := fmt.Sprintf("availability[%d]", i)

		if !isWeekday(entry.Day) {
			vErr.add(field+".day", "day must be a weekday name Monday through Sunday")
		} else if _, dup := seen[entry.Day]; dup {
			vErr.add(field+".day", "duplicate day "+entry.Day)
		} else {
			seen[entry.Day] = struct{}{}
		}

		for j, slot := range entry.Slots {
			slotField := fmt.Sprintf("%s.slots[%d]", field, j)
			validStart := timeOfDayPattern.MatchString(slot.StartTime)
			validEnd := timeOfDayPattern.MatchString(slot.EndTime)
			if !validStart {
				vErr.add(slotField+".start_time", "must match HH:MM 24-hour time")
			}
			if !validEnd {
				vErr.add(slotField+".end_time", "must match HH:MM 24-hour time")
			}
			if validStart && validEnd && slot.StartTime >= slot.EndTime {
				vErr.add(slotField, "start_time must be before end_time")
			}
		}
	}
	return vErr
}

func isWeekday(day string) bool {
	for _, candidate := range weekdays {
		if day == candidate {
			return true
		}
	}
	return false
}

func (s *AgentService) toAgentView(ctx context.Context, agent persistence.Agent) (Agent, error) {
	view := Agent{
		ID:             agent.ID,
		UserID:         agent.UserID,
		Specialization: agent.Specialization,
		Experience:     agent.Experience,
		Rating:         agent.Rating,
		TotalRatings:   agent.TotalRatings,
		Status:         agent.Status,
		Availability:   fromPersistenceAvailability(agent.Availability),
		CreatedAt:      agent.CreatedAt,
		UpdatedAt:      agent.UpdatedAt,
	}
	if s.users != nil {
		user, err := s.users.GetUser(ctx, agent.UserID)
		if err != nil {
			if !errors.Is(err, persistence.ErrNotFound) {
				return Agent{}, err
			}
		} else {
			view.FullName = strings.TrimSpace(toUserView(user).FullName())
		}
	}
	return view, nil
}

func toPersistenceAvailability(entries []AvailabilityEntry) []persistence.AvailabilityEntry {
	out := make([]persistence.AvailabilityEntry, 0, len(entries))
	for _, entry := range entries {
		slots := make([]persistence.AvailabilitySlot, 0, len(entry.Slots))
		for _, slot := range entry.Slots {
			slots = append(slots, persistence.AvailabilitySlot{StartTime: slot.StartTime, EndTime: slot.EndTime})
		}
		out = append(out, persistence.AvailabilityEntry{Day: entry.Day, Slots: slots})
	}
	return out
}

func fromPersistenceAvailability(entries []persistence.AvailabilityEntry) []AvailabilityEntry {
	out := make([]AvailabilityEntry, 0, len(entries))
	for _, entry := range entries {
		slots := make([]AvailabilitySlot, 0, len(entry.Slots))
		for _, slot := range entry.Slots {
			slots = append(slots, AvailabilitySlot{StartTime: slot.StartTime, EndTime: slot.EndTime})
		}
		out = append(out, AvailabilityEntry{Day: entry.Day, Slots: slots})
	}
	return out
}
