package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

type userRepoStub struct {
	users map[string]persistence.User
	err   error
}

func newUserRepoStub(users ...persistence.User) *userRepoStub {
	stub := &userRepoStub{users: make(map[string]persistence.User)}
	for _, user := range users {
		stub.users[user.ID] = user
	}
	return stub
}

func (s *userRepoStub) CreateUser(ctx context.Context, user persistence.User) error {
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *userRepoStub) UpdateUser(ctx context.Context, user persistence.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *userRepoStub) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if s.err != nil {
		return persistence.User{}, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userRepoStub) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if s.err != nil {
		return persistence.User{}, s.err
	}
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *userRepoStub) ListUsers(ctx context.Context) ([]persistence.User, error) {
	out := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userRepoStub) CountUsersByRole(ctx context.Context, role string) (int, error) {
	count := 0
	for _, user := range s.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (s *userRepoStub) DeleteUser(ctx context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type appointmentRepoStub struct {
	appointments []persistence.Appointment
	createErr    error
	err          error
}

func (s *appointmentRepoStub) overlapping(agentID string, start, end time.Time) *persistence.Appointment {
	for i, appointment := range s.appointments {
		if appointment.AgentID != agentID || appointment.Status == StatusCancelled {
			continue
		}
		if appointment.DateTime.Before(end) && start.Before(appointment.EndTime) {
			return &s.appointments[i]
		}
	}
	return nil
}

func (s *appointmentRepoStub) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.err != nil {
		return s.err
	}
	if existing := s.overlapping(appointment.AgentID, appointment.DateTime, appointment.EndTime); existing != nil {
		return fmt.Errorf("%w: overlaps appointment %s", persistence.ErrConflict, existing.ID)
	}
	s.appointments = append(s.appointments, appointment)
	return nil
}

func (s *appointmentRepoStub) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if s.err != nil {
		return persistence.Appointment{}, s.err
	}
	for _, appointment := range s.appointments {
		if appointment.ID == id {
			return appointment, nil
		}
	}
	return persistence.Appointment{}, persistence.ErrNotFound
}

func (s *appointmentRepoStub) FindOverlapping(ctx context.Context, agentID string, start, end time.Time) (*persistence.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.overlapping(agentID, start, end), nil
}

func (s *appointmentRepoStub) UpdateAppointmentStatus(ctx context.Context, id, status string, notes *string, updatedAt time.Time) (persistence.Appointment, error) {
	if s.err != nil {
		return persistence.Appointment{}, s.err
	}
	for i := range s.appointments {
		if s.appointments[i].ID != id {
			continue
		}
		s.appointments[i].Status = status
		if notes != nil {
			s.appointments[i].Notes = notes
		}
		s.appointments[i].UpdatedAt = updatedAt
		return s.appointments[i], nil
	}
	return persistence.Appointment{}, persistence.ErrNotFound
}

func (s *appointmentRepoStub) list(match func(persistence.Appointment) bool, filter persistence.AppointmentFilter) ([]persistence.Appointment, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	var all []persistence.Appointment
	for _, appointment := range s.appointments {
		if !match(appointment) {
			continue
		}
		if filter.Status != "" && appointment.Status != filter.Status {
			continue
		}
		all = append(all, appointment)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DateTime.Before(all[j].DateTime) })

	total := len(all)
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *appointmentRepoStub) ListForCustomer(ctx context.Context, customerID string, filter persistence.AppointmentFilter) ([]persistence.Appointment, int, error) {
	return s.list(func(a persistence.Appointment) bool { return a.CustomerID == customerID }, filter)
}

func (s *appointmentRepoStub) ListForAgent(ctx context.Context, agentID string, filter persistence.AppointmentFilter) ([]persistence.Appointment, int, error) {
	return s.list(func(a persistence.Appointment) bool { return a.AgentID == agentID }, filter)
}

func (s *appointmentRepoStub) CountByStatus(ctx context.Context, status string) (int, error) {
	count := 0
	for _, appointment := range s.appointments {
		if appointment.Status == status {
			count++
		}
	}
	return count, nil
}

type agentRepoStub struct {
	agents   map[string]persistence.Agent
	replaced map[string][]persistence.AvailabilityEntry
	err      error
}

func newAgentRepoStub(agents ...persistence.Agent) *agentRepoStub {
	stub := &agentRepoStub{
		agents:   make(map[string]persistence.Agent),
		replaced: make(map[string][]persistence.AvailabilityEntry),
	}
	for _, agent := range agents {
		stub.agents[agent.ID] = agent
	}
	return stub
}

func (s *agentRepoStub) CreateAgent(ctx context.Context, agent persistence.Agent) error {
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.agents {
		if existing.UserID == agent.UserID {
			return persistence.ErrDuplicate
		}
	}
	s.agents[agent.ID] = agent
	return nil
}

func (s *agentRepoStub) UpdateAgent(ctx context.Context, agent persistence.Agent) error {
	if _, ok := s.agents[agent.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.agents[agent.ID] = agent
	return nil
}

func (s *agentRepoStub) GetAgent(ctx context.Context, id string) (persistence.Agent, error) {
	if s.err != nil {
		return persistence.Agent{}, s.err
	}
	agent, ok := s.agents[id]
	if !ok {
		return persistence.Agent{}, persistence.ErrNotFound
	}
	return agent, nil
}

func (s *agentRepoStub) GetAgentByUserID(ctx context.Context, userID string) (persistence.Agent, error) {
	for _, agent := range s.agents {
		if agent.UserID == userID {
			return agent, nil
		}
	}
	return persistence.Agent{}, persistence.ErrNotFound
}

func (s *agentRepoStub) ListAgents(ctx context.Context, status string) ([]persistence.Agent, error) {
	var out []persistence.Agent
	for _, agent := range s.agents {
		if status != "" && agent.Status != status {
			continue
		}
		out = append(out, agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *agentRepoStub) ReplaceAvailability(ctx context.Context, agentID string, entries []persistence.AvailabilityEntry) error {
	if s.err != nil {
		return s.err
	}
	agent, ok := s.agents[agentID]
	if !ok {
		return persistence.ErrNotFound
	}
	agent.Availability = entries
	s.agents[agentID] = agent
	s.replaced[agentID] = entries
	return nil
}

type sessionRepoStub struct {
	sessions map[string]persistence.Session
	err      error
}

func newSessionRepoStub() *sessionRepoStub {
	return &sessionRepoStub{sessions: make(map[string]persistence.Session)}
}

func (s *sessionRepoStub) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if s.err != nil {
		return persistence.Session{}, s.err
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepoStub) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	if s.err != nil {
		return persistence.Session{}, s.err
	}
	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionRepoStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepoStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

type planRepoStub struct {
	plans map[string]persistence.Plan
	err   error
}

func newPlanRepoStub() *planRepoStub {
	return &planRepoStub{plans: make(map[string]persistence.Plan)}
}

func (s *planRepoStub) CreatePlan(ctx context.Context, plan persistence.Plan) error {
	if s.err != nil {
		return s.err
	}
	s.plans[plan.ID] = plan
	return nil
}

func (s *planRepoStub) UpdatePlan(ctx context.Context, plan persistence.Plan) error {
	if _, ok := s.plans[plan.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.plans[plan.ID] = plan
	return nil
}

func (s *planRepoStub) GetPlan(ctx context.Context, id string) (persistence.Plan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return persistence.Plan{}, persistence.ErrNotFound
	}
	return plan, nil
}

func (s *planRepoStub) ListPlans(ctx context.Context, onlyActive bool) ([]persistence.Plan, error) {
	var out []persistence.Plan
	for _, plan := range s.plans {
		if onlyActive && !plan.IsActive {
			continue
		}
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *planRepoStub) DeletePlan(ctx context.Context, id string) error {
	if _, ok := s.plans[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

func (s *planRepoStub) CountActivePlans(ctx context.Context) (int, error) {
	count := 0
	for _, plan := range s.plans {
		if plan.IsActive {
			count++
		}
	}
	return count, nil
}

type notificationRepoStub struct {
	records []persistence.Notification
	err     error
}

func (s *notificationRepoStub) CreateNotification(ctx context.Context, record persistence.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *notificationRepoStub) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]persistence.Notification, error) {
	var out []persistence.Notification
	for _, record := range s.records {
		if record.RecipientID != recipientID {
			continue
		}
		if unreadOnly && record.Read {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *notificationRepoStub) MarkRead(ctx context.Context, id, recipientID string, readAt time.Time) (persistence.Notification, error) {
	for i := range s.records {
		if s.records[i].ID == id && s.records[i].RecipientID == recipientID {
			s.records[i].Read = true
			s.records[i].UpdatedAt = readAt
			return s.records[i], nil
		}
	}
	return persistence.Notification{}, persistence.ErrNotFound
}

type dispatcherStub struct {
	dispatched []NotificationInput
	err        error
}

func (s *dispatcherStub) Dispatch(ctx context.Context, input NotificationInput) (Notification, error) {
	if s.err != nil {
		return Notification{}, s.err
	}
	s.dispatched = append(s.dispatched, input)
	return Notification{ID: "notification-1", RecipientID: input.RecipientID}, nil
}

type senderStub struct {
	sent []string
	err  error
}

func (s *senderStub) Send(ctx context.Context, recipientID, title, message, channel string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, recipientID+"/"+channel)
	return nil
}

func sequentialIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
