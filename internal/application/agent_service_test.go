package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

func agentFixture() persistence.Agent {
	return persistence.Agent{
		ID:             "agent-1",
		UserID:         "user-1",
		Specialization: "life",
		Status:         "active",
	}
}

func TestAgentService_SetAvailability_RejectsDuplicateDay(t *testing.T) {
	t.Parallel()

	repo := newAgentRepoStub(agentFixture())
	svc := NewAgentService(repo, nil, fixedNow(time.Now()), nil)

	err := svc.SetAvailability(context.Background(), SetAvailabilityParams{
		Principal: Principal{UserID: "user-1", Role: RoleAgent},
		AgentID:   "agent-1",
		Entries: []AvailabilityEntry{
			{Day: "Monday", Slots: []AvailabilitySlot{{StartTime: "09:00", EndTime: "12:00"}}},
			{Day: "Monday", Slots: []AvailabilitySlot{{StartTime: "14:00", EndTime: "16:00"}}},
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["availability[1].day"]; !ok {
		t.Fatalf("expected duplicate day error, got %v", vErr.FieldErrors)
	}
}

func TestAgentService_SetAvailability_RejectsMalformedTimes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		start string
		end   string
		field string
	}{
		{"bad hour", "24:00", "25:00", "availability[0].slots[0].start_time"},
		{"bad minute", "09:60", "10:00", "availability[0].slots[0].start_time"},
		{"missing zero pad", "9:00", "10:00", "availability[0].slots[0].start_time"},
		{"bad end", "09:00", "9pm", "availability[0].slots[0].end_time"},
		{"start not before end", "10:00", "10:00", "availability[0].slots[0]"},
		{"start after end", "11:00", "10:00", "availability[0].slots[0]"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := newAgentRepoStub(agentFixture())
			svc := NewAgentService(repo, nil, fixedNow(time.Now()), nil)

			err := svc.SetAvailability(context.Background(), SetAvailabilityParams{
				Principal: Principal{UserID: "user-1", Role: RoleAgent},
				AgentID:   "agent-1",
				Entries: []AvailabilityEntry{
					{Day: "Monday", Slots: []AvailabilitySlot{{StartTime: tc.start, EndTime: tc.end}}},
				},
			})

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected error on %s, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestAgentService_SetAvailability_RejectsUnknownDay(t *testing.T) {
	t.Parallel()

	repo := newAgentRepoStub(agentFixture())
	svc := NewAgentService(repo, nil, fixedNow(time.Now()), nil)

	err := svc.SetAvailability(context.Background(), SetAvailabilityParams{
		Principal: Principal{UserID: "user-1", Role: RoleAgent},
		AgentID:   "agent-1",
		Entries:   []AvailabilityEntry{{Day: "Funday"}},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAgentService_SetAvailability_Authorization(t *testing.T) {
	t.Parallel()

	entries := []AvailabilityEntry{
		{Day: "Monday", Slots: []AvailabilitySlot{{StartTime: "09:00", EndTime: "12:00"}}},
	}

	t.Run("unrelated agent denied", func(t *testing.T) {
		t.Parallel()
		svc := NewAgentService(newAgentRepoStub(agentFixture()), nil, fixedNow(time.Now()), nil)
		err := svc.SetAvailability(context.Background(), SetAvailabilityParams{
			Principal: Principal{UserID: "user-2", Role: RoleAgent},
			AgentID:   "agent-1",
			Entries:   entries,
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("owner allowed", func(t *testing.T) {
		t.Parallel()
		repo := newAgentRepoStub(agentFixture())
		svc := NewAgentService(repo, nil, fixedNow(time.Now()), nil)
		if err := svc.SetAvailability(context.Background(), SetAvailabilityParams{
			Principal: Principal{UserID: "user-1", Role: RoleAgent},
			AgentID:   "agent-1",
			Entries:   entries,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(repo.replaced["agent-1"]) != 1 {
			t.Fatalf("expected availability replaced, got %v", repo.replaced)
		}
	})

	t.Run("admin allowed", func(t *testing.T) {
		t.Parallel()
		svc := NewAgentService(newAgentRepoStub(agentFixture()), nil, fixedNow(time.Now()), nil)
		if err := svc.SetAvailability(context.Background(), SetAvailabilityParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			AgentID:   "agent-1",
			Entries:   entries,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestAgentService_SetAvailability_EmptySetClears(t *testing.T) {
	t.Parallel()

	repo := newAgentRepoStub(agentFixture())
	svc := NewAgentService(repo, nil, fixedNow(time.Now()), nil)

	if err := svc.SetAvailability(context.Background(), SetAvailabilityParams{
		Principal: Principal{UserID: "user-1", Role: RoleAgent},
		AgentID:   "agent-1",
		Entries:   nil,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAgentService_SetAvailability_UnknownAgent(t *testing.T) {
	t.Parallel()

	svc := NewAgentService(newAgentRepoStub(), nil, fixedNow(time.Now()), nil)
	err := svc.SetAvailability(context.Background(), SetAvailabilityParams{
		Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
		AgentID:   "missing",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAgentService_UpdateProfile(t *testing.T) {
	t.Parallel()

	updatedAt := time.Date(2024, time.July, 4, 9, 0, 0, 0, time.UTC)

	t.Run("owner updates profile", func(t *testing.T) {
		t.Parallel()
		repo := newAgentRepoStub(agentFixture())
		svc := NewAgentService(repo, nil, fixedNow(updatedAt), nil)

		agent, err := svc.UpdateProfile(context.Background(), UpdateAgentProfileParams{
			Principal:      Principal{UserID: "user-1", Role: RoleAgent},
			AgentID:        "agent-1",
			Specialization: "  property  ",
			Experience:     12,
			Status:         "on_leave",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if agent.Specialization != "property" || agent.Status != "on_leave" {
			t.Fatalf("unexpected view: %+v", agent)
		}
		stored := repo.agents["agent-1"]
		if stored.Specialization != "property" || stored.Experience != 12 || stored.Status != "on_leave" {
			t.Fatalf("profile not persisted: %+v", stored)
		}
		if !stored.UpdatedAt.Equal(updatedAt) {
			t.Fatalf("expected UpdatedAt %v, got %v", updatedAt, stored.UpdatedAt)
		}
	})

	t.Run("admin allowed", func(t *testing.T) {
		t.Parallel()
		svc := NewAgentService(newAgentRepoStub(agentFixture()), nil, fixedNow(updatedAt), nil)
		_, err := svc.UpdateProfile(context.Background(), UpdateAgentProfileParams{
			Principal:      Principal{UserID: "admin-1", Role: RoleAdmin},
			AgentID:        "agent-1",
			Specialization: "life",
			Experience:     3,
			Status:         "inactive",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unrelated agent denied", func(t *testing.T) {
		t.Parallel()
		svc := NewAgentService(newAgentRepoStub(agentFixture()), nil, fixedNow(updatedAt), nil)
		_, err := svc.UpdateProfile(context.Background(), UpdateAgentProfileParams{
			Principal:      Principal{UserID: "user-2", Role: RoleAgent},
			AgentID:        "agent-1",
			Specialization: "life",
			Experience:     3,
			Status:         "active",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("invalid fields rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewAgentService(newAgentRepoStub(agentFixture()), nil, fixedNow(updatedAt), nil)
		_, err := svc.UpdateProfile(context.Background(), UpdateAgentProfileParams{
			Principal:      Principal{UserID: "user-1", Role: RoleAgent},
			AgentID:        "agent-1",
			Specialization: "   ",
			Experience:     -1,
			Status:         "retired",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"specialization", "experience", "status"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected error on %s, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("unknown agent", func(t *testing.T) {
		t.Parallel()
		svc := NewAgentService(newAgentRepoStub(), nil, fixedNow(updatedAt), nil)
		_, err := svc.UpdateProfile(context.Background(), UpdateAgentProfileParams{
			Principal:      Principal{UserID: "admin-1", Role: RoleAdmin},
			AgentID:        "missing",
			Specialization: "life",
			Status:         "active",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAgentService_GetAgent_IncludesFullName(t *testing.T) {
	t.Parallel()

	users := newUserRepoStub(persistence.User{ID: "user-1", FirstName: "Ada", LastName: "Smith", Role: RoleAgent})
	svc := NewAgentService(newAgentRepoStub(agentFixture()), users, fixedNow(time.Now()), nil)

	agent, err := svc.GetAgent(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.FullName != "Ada Smith" {
		t.Fatalf("expected full name Ada Smith, got %q", agent.FullName)
	}
}
