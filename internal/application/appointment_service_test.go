package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

func testUsers() *userRepoStub {
	return newUserRepoStub(
		persistence.User{ID: "customer-1", Email: "c1@example.com", FirstName: "Carla", LastName: "Ng", Role: RoleCustomer},
		persistence.User{ID: "customer-2", Email: "c2@example.com", FirstName: "Ben", LastName: "Okafor", Role: RoleCustomer},
		persistence.User{ID: "agent-1", Email: "a1@example.com", FirstName: "Ada", LastName: "Smith", Role: RoleAgent},
	)
}

func mustUTC(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2024, 6, 10, hour, minute, 0, 0, time.UTC)
}

func TestAppointmentService_Schedule_DerivesFixedDuration(t *testing.T) {
	t.Parallel()

	repo := &appointmentRepoStub{}
	svc := NewAppointmentService(repo, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	details, err := svc.Schedule(context.Background(), ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-1", Role: RoleCustomer},
		AgentID:   "agent-1",
		DateTime:  mustUTC(t, 9, 0),
		Purpose:   "checkup",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if details.Status != StatusScheduled {
		t.Fatalf("expected status %s, got %s", StatusScheduled, details.Status)
	}
	if got, want := details.EndTime, mustUTC(t, 10, 0); !got.Equal(want) {
		t.Fatalf("expected end time %v, got %v", want, got)
	}
	if details.CustomerID != "customer-1" {
		t.Fatalf("expected customer-1, got %s", details.CustomerID)
	}
}

func TestAppointmentService_Schedule_RejectsOverlap(t *testing.T) {
	t.Parallel()

	repo := &appointmentRepoStub{}
	svc := NewAppointmentService(repo, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)
	ctx := context.Background()

	if _, err := svc.Schedule(ctx, ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-1", Role: RoleCustomer},
		AgentID:   "agent-1",
		DateTime:  mustUTC(t, 9, 0),
		Purpose:   "checkup",
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err := svc.Schedule(ctx, ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-2", Role: RoleCustomer},
		AgentID:   "agent-1",
		DateTime:  mustUTC(t, 9, 30),
		Purpose:   "consult",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Touching boundary uses half-open intervals and must not conflict.
	if _, err := svc.Schedule(ctx, ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-2", Role: RoleCustomer},
		AgentID:   "agent-1",
		DateTime:  mustUTC(t, 10, 0),
		Purpose:   "consult",
	}); err != nil {
		t.Fatalf("boundary booking failed: %v", err)
	}
}

func TestAppointmentService_Schedule_RaceLoserGetsConflict(t *testing.T) {
	t.Parallel()

	repo := &appointmentRepoStub{createErr: persistence.ErrConflict}
	svc := NewAppointmentService(repo, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	_, err := svc.Schedule(context.Background(), ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-1", Role: RoleCustomer},
		AgentID:   "agent-1",
		DateTime:  mustUTC(t, 9, 0),
		Purpose:   "checkup",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict from insert-time re-check, got %v", err)
	}
}

func TestAppointmentService_Schedule_Validation(t *testing.T) {
	t.Parallel()

	svc := NewAppointmentService(&appointmentRepoStub{}, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	_, err := svc.Schedule(context.Background(), ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-1", Role: RoleCustomer},
		AgentID:   "agent-1",
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["purpose"]; !ok {
		t.Fatalf("expected purpose validation error, got %v", vErr.FieldErrors)
	}
	if _, ok := vErr.FieldErrors["date_time"]; !ok {
		t.Fatalf("expected date_time validation error, got %v", vErr.FieldErrors)
	}
}

func TestAppointmentService_Schedule_RejectsUnknownAgent(t *testing.T) {
	t.Parallel()

	svc := NewAppointmentService(&appointmentRepoStub{}, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	_, err := svc.Schedule(context.Background(), ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-1", Role: RoleCustomer},
		AgentID:   "customer-2",
		DateTime:  mustUTC(t, 9, 0),
		Purpose:   "checkup",
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["agent_id"]; !ok {
		t.Fatalf("expected agent_id validation error, got %v", vErr.FieldErrors)
	}
}

func TestAppointmentService_Schedule_BooksOnBehalfRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := NewAppointmentService(&appointmentRepoStub{}, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	_, err := svc.Schedule(context.Background(), ScheduleAppointmentParams{
		Principal:  Principal{UserID: "customer-2", Role: RoleCustomer},
		CustomerID: "customer-1",
		AgentID:    "agent-1",
		DateTime:   mustUTC(t, 9, 0),
		Purpose:    "checkup",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if _, err := svc.Schedule(context.Background(), ScheduleAppointmentParams{
		Principal:  Principal{UserID: "admin-1", Role: RoleAdmin},
		CustomerID: "customer-1",
		AgentID:    "agent-1",
		DateTime:   mustUTC(t, 9, 0),
		Purpose:    "checkup",
	}); err != nil {
		t.Fatalf("admin booking on behalf failed: %v", err)
	}
}

func TestAppointmentService_Schedule_NotifiesAgent(t *testing.T) {
	t.Parallel()

	dispatcher := &dispatcherStub{}
	svc := NewAppointmentService(&appointmentRepoStub{}, testUsers(), dispatcher, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	if _, err := svc.Schedule(context.Background(), ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-1", Role: RoleCustomer},
		AgentID:   "agent-1",
		DateTime:  mustUTC(t, 9, 0),
		Purpose:   "checkup",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(dispatcher.dispatched) != 1 || dispatcher.dispatched[0].RecipientID != "agent-1" {
		t.Fatalf("expected one notification for agent-1, got %v", dispatcher.dispatched)
	}
}

func TestAppointmentService_Schedule_DispatchFailureDoesNotFailBooking(t *testing.T) {
	t.Parallel()

	dispatcher := &dispatcherStub{err: errors.New("gateway down")}
	repo := &appointmentRepoStub{}
	svc := NewAppointmentService(repo, testUsers(), dispatcher, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	if _, err := svc.Schedule(context.Background(), ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-1", Role: RoleCustomer},
		AgentID:   "agent-1",
		DateTime:  mustUTC(t, 9, 0),
		Purpose:   "checkup",
	}); err != nil {
		t.Fatalf("booking must survive dispatch failure, got %v", err)
	}
	if len(repo.appointments) != 1 {
		t.Fatalf("expected appointment persisted, got %d", len(repo.appointments))
	}
}

func TestAppointmentService_UpdateStatus_Authorization(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		principal Principal
		wantErr   error
	}{
		{"customer owner", Principal{UserID: "customer-1", Role: RoleCustomer}, nil},
		{"agent party", Principal{UserID: "agent-1", Role: RoleAgent}, nil},
		{"admin", Principal{UserID: "admin-1", Role: RoleAdmin}, nil},
		{"unrelated user", Principal{UserID: "customer-2", Role: RoleCustomer}, ErrUnauthorized},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &appointmentRepoStub{appointments: []persistence.Appointment{{
				ID:         "appt-1",
				CustomerID: "customer-1",
				AgentID:    "agent-1",
				DateTime:   mustUTC(t, 9, 0),
				EndTime:    mustUTC(t, 10, 0),
				Status:     StatusScheduled,
			}}}
			svc := NewAppointmentService(repo, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

			_, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
				Principal:     tc.principal,
				AppointmentID: "appt-1",
				Status:        StatusCancelled,
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAppointmentService_UpdateStatus_RestrictsTargetStates(t *testing.T) {
	t.Parallel()

	repo := &appointmentRepoStub{appointments: []persistence.Appointment{{
		ID: "appt-1", CustomerID: "customer-1", AgentID: "agent-1", Status: StatusScheduled,
	}}}
	svc := NewAppointmentService(repo, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	for _, status := range []string{StatusScheduled, StatusRescheduled, "UNKNOWN"} {
		_, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
			Principal:     Principal{UserID: "customer-1", Role: RoleCustomer},
			AppointmentID: "appt-1",
			Status:        status,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("status %s: expected ValidationError, got %v", status, err)
		}
	}
}

func TestAppointmentService_UpdateStatus_RepeatTransitionsAllowed(t *testing.T) {
	t.Parallel()

	repo := &appointmentRepoStub{appointments: []persistence.Appointment{{
		ID: "appt-1", CustomerID: "customer-1", AgentID: "agent-1", Status: StatusCancelled,
	}}}
	svc := NewAppointmentService(repo, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	view, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
		Principal:     Principal{UserID: "customer-1", Role: RoleCustomer},
		AppointmentID: "appt-1",
		Status:        StatusCancelled,
	})
	if err != nil {
		t.Fatalf("re-cancelling must be permitted: %v", err)
	}
	if view.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", view.Status)
	}
}

func TestAppointmentService_CancellationFreesSlot(t *testing.T) {
	t.Parallel()

	repo := &appointmentRepoStub{}
	svc := NewAppointmentService(repo, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)
	ctx := context.Background()

	details, err := svc.Schedule(ctx, ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-1", Role: RoleCustomer},
		AgentID:   "agent-1",
		DateTime:  mustUTC(t, 9, 0),
		Purpose:   "checkup",
	})
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, UpdateStatusParams{
		Principal:     Principal{UserID: "customer-1", Role: RoleCustomer},
		AppointmentID: details.ID,
		Status:        StatusCancelled,
	}); err != nil {
		t.Fatalf("cancellation failed: %v", err)
	}

	if _, err := svc.Schedule(ctx, ScheduleAppointmentParams{
		Principal: Principal{UserID: "customer-2", Role: RoleCustomer},
		AgentID:   "agent-1",
		DateTime:  mustUTC(t, 9, 0),
		Purpose:   "consult",
	}); err != nil {
		t.Fatalf("rebooking cancelled slot failed: %v", err)
	}
}

func TestAppointmentService_UpdateStatus_NotifiesCounterparties(t *testing.T) {
	t.Parallel()

	dispatcher := &dispatcherStub{}
	repo := &appointmentRepoStub{appointments: []persistence.Appointment{{
		ID: "appt-1", CustomerID: "customer-1", AgentID: "agent-1", Status: StatusScheduled,
	}}}
	svc := NewAppointmentService(repo, testUsers(), dispatcher, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
		Principal:     Principal{UserID: "customer-1", Role: RoleCustomer},
		AppointmentID: "appt-1",
		Status:        StatusCancelled,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(dispatcher.dispatched) != 1 || dispatcher.dispatched[0].RecipientID != "agent-1" {
		t.Fatalf("expected one notification to the agent, got %v", dispatcher.dispatched)
	}
}

func TestAppointmentService_ListForCustomer_ProjectsCounterparty(t *testing.T) {
	t.Parallel()

	notes := "internal notes"
	repo := &appointmentRepoStub{appointments: []persistence.Appointment{
		{ID: "appt-2", CustomerID: "customer-1", AgentID: "agent-1", DateTime: mustUTC(t, 11, 0), Status: StatusScheduled, Purpose: "consult", Notes: &notes},
		{ID: "appt-1", CustomerID: "customer-1", AgentID: "agent-1", DateTime: mustUTC(t, 9, 0), Status: StatusCompleted, Purpose: "checkup"},
		{ID: "appt-3", CustomerID: "customer-2", AgentID: "agent-1", DateTime: mustUTC(t, 13, 0), Status: StatusScheduled, Purpose: "review"},
	}}
	svc := NewAppointmentService(repo, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	page, err := svc.ListForCustomer(context.Background(), ListAppointmentsParams{
		Principal: Principal{UserID: "customer-1", Role: RoleCustomer},
		SubjectID: "customer-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.Pagination.Total != 2 || page.Pagination.Page != 1 || page.Pagination.Pages != 1 {
		t.Fatalf("unexpected pagination: %+v", page.Pagination)
	}
	if len(page.Appointments) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page.Appointments))
	}
	if page.Appointments[0].ID != "appt-1" {
		t.Fatalf("expected chronological order, got %s first", page.Appointments[0].ID)
	}
	if got := page.Appointments[0].Counterparty; got.ID != "agent-1" || got.FullName != "Ada Smith" {
		t.Fatalf("expected agent counterparty Ada Smith, got %+v", got)
	}
}

func TestAppointmentService_ListForAgent_PaginatesAndFilters(t *testing.T) {
	t.Parallel()

	repo := &appointmentRepoStub{appointments: []persistence.Appointment{
		{ID: "appt-1", CustomerID: "customer-1", AgentID: "agent-1", DateTime: mustUTC(t, 9, 0), Status: StatusScheduled, Purpose: "a"},
		{ID: "appt-2", CustomerID: "customer-2", AgentID: "agent-1", DateTime: mustUTC(t, 11, 0), Status: StatusScheduled, Purpose: "b"},
		{ID: "appt-3", CustomerID: "customer-1", AgentID: "agent-1", DateTime: mustUTC(t, 13, 0), Status: StatusCancelled, Purpose: "c"},
	}}
	svc := NewAppointmentService(repo, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	page, err := svc.ListForAgent(context.Background(), ListAppointmentsParams{
		Principal: Principal{UserID: "agent-1", Role: RoleAgent},
		SubjectID: "agent-1",
		Status:    StatusScheduled,
		Page:      2,
		Limit:     1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.Pagination.Total != 2 || page.Pagination.Pages != 2 || page.Pagination.Page != 2 {
		t.Fatalf("unexpected pagination: %+v", page.Pagination)
	}
	if len(page.Appointments) != 1 || page.Appointments[0].ID != "appt-2" {
		t.Fatalf("unexpected page contents: %+v", page.Appointments)
	}
	if got := page.Appointments[0].Counterparty; got.ID != "customer-2" || got.FullName != "Ben Okafor" {
		t.Fatalf("expected customer counterparty, got %+v", got)
	}
}

func TestAppointmentService_List_RequiresSubjectOrAdmin(t *testing.T) {
	t.Parallel()

	svc := NewAppointmentService(&appointmentRepoStub{}, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	_, err := svc.ListForCustomer(context.Background(), ListAppointmentsParams{
		Principal: Principal{UserID: "customer-2", Role: RoleCustomer},
		SubjectID: "customer-1",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if _, err := svc.ListForCustomer(context.Background(), ListAppointmentsParams{
		Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
		SubjectID: "customer-1",
	}); err != nil {
		t.Fatalf("admin listing failed: %v", err)
	}
}

func TestAppointmentService_UpdateStatus_UnknownAppointment(t *testing.T) {
	t.Parallel()

	svc := NewAppointmentService(&appointmentRepoStub{}, testUsers(), nil, sequentialIDs("appt"), fixedNow(mustUTC(t, 8, 0)), nil)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusParams{
		Principal:     Principal{UserID: "customer-1", Role: RoleCustomer},
		AppointmentID: "missing",
		Status:        StatusCancelled,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
