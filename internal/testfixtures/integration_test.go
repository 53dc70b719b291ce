package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/brokerage/internal/application"
	"github.com/example/brokerage/internal/persistence"
)

// Exercises the full booking flow against real SQLite storage: book, collide,
// cancel, rebook, with notifications recorded along the way.
func TestBookingLifecycleAgainstSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory(WithIDGenerator(NewIDGenerator("gen")))

	customer := NewUser(WithUserName("Ada", "Smith"))
	rival := NewUser(WithUserName("Cal", "Reyes"))
	agentUser := NewUser(WithUserRole("agent"), WithUserName("Ben", "Okafor"))
	require.NoError(t, harness.Users.CreateUser(ctx, customer))
	require.NoError(t, harness.Users.CreateUser(ctx, rival))
	require.NoError(t, harness.Users.CreateUser(ctx, agentUser))
	require.NoError(t, harness.Agents.CreateAgent(ctx, NewAgent(agentUser.ID,
		WithAgentAvailability(BusinessHours("Monday", "Tuesday", "Wednesday")...))))

	notifications := factory.NotificationService(harness.Notifications, nil)
	appointments := factory.AppointmentService(harness.Appointments, harness.Users, notifications)

	asCustomer := application.Principal{UserID: customer.ID, Role: application.RoleCustomer}
	asRival := application.Principal{UserID: rival.ID, Role: application.RoleCustomer}
	start := ReferenceTime().Add(24 * time.Hour)

	booked, err := appointments.Schedule(ctx, application.ScheduleAppointmentParams{
		Principal: asCustomer,
		AgentID:   agentUser.ID,
		DateTime:  start,
		Purpose:   "policy review",
	})
	require.NoError(t, err)
	assert.Equal(t, application.StatusScheduled, booked.Status)
	assert.Equal(t, start, booked.DateTime)
	assert.Equal(t, start.Add(time.Hour), booked.EndTime)

	// A second customer targeting the same slot is turned away.
	_, err = appointments.Schedule(ctx, application.ScheduleAppointmentParams{
		Principal: asRival,
		AgentID:   agentUser.ID,
		DateTime:  start.Add(30 * time.Minute),
		Purpose:   "claim question",
	})
	require.ErrorIs(t, err, application.ErrConflict)

	inbox, err := harness.Notifications.ListForRecipient(ctx, agentUser.ID, false)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "New appointment scheduled", inbox[0].Title)

	_, err = appointments.UpdateStatus(ctx, application.UpdateStatusParams{
		Principal:     asCustomer,
		AppointmentID: booked.ID,
		Status:        application.StatusCancelled,
	})
	require.NoError(t, err)

	rebooked, err := appointments.Schedule(ctx, application.ScheduleAppointmentParams{
		Principal: asRival,
		AgentID:   agentUser.ID,
		DateTime:  start,
		Purpose:   "claim question",
	})
	require.NoError(t, err)
	assert.NotEqual(t, booked.ID, rebooked.ID)
}

func TestRegistrationAndLoginAgainstSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory(WithIDGenerator(NewIDGenerator("acct")))

	users := factory.UserService(harness.Users, harness.Agents)
	auth := factory.AuthService(harness.Users, harness.Sessions, 24*time.Hour)

	result, err := users.Register(ctx, application.RegisterUserInput{
		Email:          "ben@example.com",
		Password:       "longenough",
		FirstName:      "Ben",
		LastName:       "Okafor",
		Role:           application.RoleAgent,
		Specialization: "life",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Agent)
	assert.Equal(t, result.User.ID, result.Agent.UserID)

	authed, err := auth.Authenticate(ctx, application.AuthenticateParams{
		Email:    "Ben@Example.com",
		Password: "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, authed.User.ID)

	principal, err := auth.ValidateSession(ctx, authed.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, application.RoleAgent, principal.Role)

	_, err = auth.Authenticate(ctx, application.AuthenticateParams{
		Email:    "ben@example.com",
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, application.ErrInvalidCredentials)
}

// Disabling an account locks the user out immediately: new logins fail and
// sessions issued before the change stop validating. Re-enabling restores
// access without touching the stored credentials.
func TestDisabledAccountLockoutAgainstSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory(WithIDGenerator(NewIDGenerator("lock")))

	users := factory.UserService(harness.Users, harness.Agents)
	auth := factory.AuthService(harness.Users, harness.Sessions, 24*time.Hour)
	admin := factory.AdminService(harness.Users, harness.Appointments, harness.Plans)

	result, err := users.Register(ctx, application.RegisterUserInput{
		Email:     "dana@example.com",
		Password:  "longenough",
		FirstName: "Dana",
		LastName:  "Iqbal",
		Role:      application.RoleCustomer,
	})
	require.NoError(t, err)

	authed, err := auth.Authenticate(ctx, application.AuthenticateParams{
		Email:    "dana@example.com",
		Password: "longenough",
	})
	require.NoError(t, err)

	asAdmin := application.Principal{UserID: "admin-1", Role: application.RoleAdmin}
	updated, err := admin.UpdateUserStatus(ctx, application.UpdateUserStatusParams{
		Principal: asAdmin,
		UserID:    result.User.ID,
		Status:    application.UserStatusDisabled,
	})
	require.NoError(t, err)
	assert.Equal(t, application.UserStatusDisabled, updated.Status)

	_, err = auth.Authenticate(ctx, application.AuthenticateParams{
		Email:    "dana@example.com",
		Password: "longenough",
	})
	require.ErrorIs(t, err, application.ErrAccountDisabled)

	_, err = auth.ValidateSession(ctx, authed.Session.Token)
	require.ErrorIs(t, err, application.ErrAccountDisabled)

	_, err = admin.UpdateUserStatus(ctx, application.UpdateUserStatusParams{
		Principal: asAdmin,
		UserID:    result.User.ID,
		Status:    application.UserStatusActive,
	})
	require.NoError(t, err)

	restored, err := auth.Authenticate(ctx, application.AuthenticateParams{
		Email:    "dana@example.com",
		Password: "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, restored.User.ID)
}

// The agent_availability schema accepts only capitalized day names, so the
// fixture must produce that form regardless of input casing or CreateAgent
// fails its CHECK constraint.
func TestBusinessHoursNormalizesDayCasing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := NewSQLiteHarness(t)

	entries := BusinessHours("monday", "TUESDAY", " wednesday ")
	require.Len(t, entries, 3)
	assert.Equal(t, "Monday", entries[0].Day)
	assert.Equal(t, "Tuesday", entries[1].Day)
	assert.Equal(t, "Wednesday", entries[2].Day)

	agentUser := NewUser(WithUserRole("agent"))
	require.NoError(t, harness.Users.CreateUser(ctx, agentUser))
	require.NoError(t, harness.Agents.CreateAgent(ctx, NewAgent(agentUser.ID,
		WithAgentAvailability(entries...))))
}

func TestFixtureAppointmentsOccupyDistinctSlots(t *testing.T) {
	t.Parallel()

	first := NewAppointment("cust-1", "agent-1")
	second := NewAppointment("cust-1", "agent-1")

	assert.False(t, first.DateTime.Equal(second.DateTime))
	assert.Equal(t, time.Hour, first.EndTime.Sub(first.DateTime))
}

func TestHarnessMigratesSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := NewSQLiteHarness(t)

	_, err := harness.Users.GetUser(ctx, "missing")
	assert.True(t, errors.Is(err, persistence.ErrNotFound))
}
