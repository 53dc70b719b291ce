package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

func TestAdminService_Stats(t *testing.T) {
	t.Parallel()

	users := newUserRepoStub(
		persistence.User{ID: "c1", Email: "c1@example.com", Role: RoleCustomer},
		persistence.User{ID: "c2", Email: "c2@example.com", Role: RoleCustomer},
		persistence.User{ID: "a1", Email: "a1@example.com", Role: RoleAgent},
		persistence.User{ID: "adm", Email: "adm@example.com", Role: RoleAdmin},
	)
	appointments := &appointmentRepoStub{appointments: []persistence.Appointment{
		{ID: "1", Status: StatusScheduled},
		{ID: "2", Status: StatusScheduled},
		{ID: "3", Status: StatusCompleted},
		{ID: "4", Status: StatusCancelled},
	}}
	plans := newPlanRepoStub()
	plans.plans["p1"] = persistence.Plan{ID: "p1", IsActive: true}
	plans.plans["p2"] = persistence.Plan{ID: "p2", IsActive: false}

	svc := NewAdminService(users, appointments, plans, nil, nil)

	stats, err := svc.Stats(context.Background(), Principal{UserID: "adm", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Stats{
		Customers:             2,
		Agents:                1,
		ScheduledAppointments: 2,
		CompletedAppointments: 1,
		CancelledAppointments: 1,
		ActivePlans:           1,
	}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}
}

func TestAdminService_Stats_AdminOnly(t *testing.T) {
	t.Parallel()

	svc := NewAdminService(newUserRepoStub(), &appointmentRepoStub{}, newPlanRepoStub(), nil, nil)
	_, err := svc.Stats(context.Background(), Principal{UserID: "user-1", Role: RoleCustomer})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAdminService_UpdateUserStatus(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "adm", Role: RoleAdmin}
	updatedAt := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)

	t.Run("disables and re-enables an account", func(t *testing.T) {
		t.Parallel()
		users := newUserRepoStub(persistence.User{ID: "user-1", Email: "ada@example.com", Role: RoleCustomer, Status: UserStatusActive})
		svc := NewAdminService(users, &appointmentRepoStub{}, newPlanRepoStub(), fixedNow(updatedAt), nil)

		view, err := svc.UpdateUserStatus(context.Background(), UpdateUserStatusParams{Principal: admin, UserID: "user-1", Status: UserStatusDisabled})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.Status != UserStatusDisabled {
			t.Fatalf("expected disabled status, got %q", view.Status)
		}
		if got := users.users["user-1"]; got.Status != UserStatusDisabled || !got.UpdatedAt.Equal(updatedAt) {
			t.Fatalf("stored user not updated: %+v", got)
		}

		view, err = svc.UpdateUserStatus(context.Background(), UpdateUserStatusParams{Principal: admin, UserID: "user-1", Status: UserStatusActive})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.Status != UserStatusActive {
			t.Fatalf("expected active status, got %q", view.Status)
		}
	})

	t.Run("admin only", func(t *testing.T) {
		t.Parallel()
		users := newUserRepoStub(persistence.User{ID: "user-1", Status: UserStatusActive})
		svc := NewAdminService(users, &appointmentRepoStub{}, newPlanRepoStub(), nil, nil)

		_, err := svc.UpdateUserStatus(context.Background(), UpdateUserStatusParams{
			Principal: Principal{UserID: "user-2", Role: RoleAgent},
			UserID:    "user-1",
			Status:    UserStatusDisabled,
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		t.Parallel()
		users := newUserRepoStub(persistence.User{ID: "user-1", Status: UserStatusActive})
		svc := NewAdminService(users, &appointmentRepoStub{}, newPlanRepoStub(), nil, nil)

		_, err := svc.UpdateUserStatus(context.Background(), UpdateUserStatusParams{Principal: admin, UserID: "user-1", Status: "frozen"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["status"]; !ok {
			t.Fatalf("expected status field error, got %+v", vErr.FieldErrors)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		svc := NewAdminService(newUserRepoStub(), &appointmentRepoStub{}, newPlanRepoStub(), nil, nil)

		_, err := svc.UpdateUserStatus(context.Background(), UpdateUserStatusParams{Principal: admin, UserID: "missing", Status: UserStatusDisabled})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
