package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/brokerage/internal/persistence"
)

func TestAgentRepositoryCreateAndGet(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewAgentRepository(pool)

	user := seedUser(t, pool, "user-1", "agent")
	agent := persistence.Agent{
		ID:             "agent-1",
		UserID:         user.ID,
		Specialization: "home",
		Experience:     5,
		Status:         "active",
		Availability: []persistence.AvailabilityEntry{
			{Day: "Wednesday", Slots: []persistence.AvailabilitySlot{{StartTime: "13:00", EndTime: "17:00"}}},
			{Day: "Monday", Slots: []persistence.AvailabilitySlot{
				{StartTime: "09:00", EndTime: "12:00"},
				{StartTime: "14:00", EndTime: "16:00"},
			}},
		},
		CreatedAt: testClock,
		UpdatedAt: testClock,
	}
	require.NoError(t, repo.CreateAgent(ctx, agent))

	t.Run("availability returned in canonical weekday order", func(t *testing.T) {
		stored, err := repo.GetAgent(ctx, "agent-1")
		require.NoError(t, err)
		require.Len(t, stored.Availability, 2)
		assert.Equal(t, "Monday", stored.Availability[0].Day)
		assert.Equal(t, "Wednesday", stored.Availability[1].Day)
		require.Len(t, stored.Availability[0].Slots, 2)
		assert.Equal(t, "09:00", stored.Availability[0].Slots[0].StartTime)
	})

	t.Run("lookup by user id", func(t *testing.T) {
		stored, err := repo.GetAgentByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "agent-1", stored.ID)
	})

	t.Run("second profile for same user rejected", func(t *testing.T) {
		dup := agent
		dup.ID = "agent-2"
		err := repo.CreateAgent(ctx, dup)
		assert.ErrorIs(t, err, persistence.ErrDuplicate)
	})
}

func TestAgentRepositoryReplaceAvailability(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewAgentRepository(pool)

	user := seedUser(t, pool, "user-1", "agent")
	seedAgent(t, pool, "agent-1", user.ID)

	entries := []persistence.AvailabilityEntry{
		{Day: "Friday", Slots: []persistence.AvailabilitySlot{{StartTime: "10:00", EndTime: "11:00"}}},
	}
	require.NoError(t, repo.ReplaceAvailability(ctx, "agent-1", entries))

	t.Run("replacement is wholesale", func(t *testing.T) {
		next := []persistence.AvailabilityEntry{
			{Day: "Tuesday", Slots: []persistence.AvailabilitySlot{{StartTime: "08:00", EndTime: "12:00"}}},
		}
		require.NoError(t, repo.ReplaceAvailability(ctx, "agent-1", next))

		stored, err := repo.GetAgent(ctx, "agent-1")
		require.NoError(t, err)
		require.Len(t, stored.Availability, 1)
		assert.Equal(t, "Tuesday", stored.Availability[0].Day)
	})

	t.Run("empty set clears availability", func(t *testing.T) {
		require.NoError(t, repo.ReplaceAvailability(ctx, "agent-1", nil))
		stored, err := repo.GetAgent(ctx, "agent-1")
		require.NoError(t, err)
		assert.Empty(t, stored.Availability)
	})

	t.Run("unknown agent", func(t *testing.T) {
		err := repo.ReplaceAvailability(ctx, "missing", entries)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func TestAgentRepositoryList(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewAgentRepository(pool)

	active := seedUser(t, pool, "user-1", "agent")
	inactive := seedUser(t, pool, "user-2", "agent")
	seedAgent(t, pool, "agent-1", active.ID)

	agent2 := persistence.Agent{
		ID:             "agent-2",
		UserID:         inactive.ID,
		Specialization: "auto",
		Status:         "inactive",
		CreatedAt:      testClock,
		UpdatedAt:      testClock,
	}
	require.NoError(t, repo.CreateAgent(ctx, agent2))

	all, err := repo.ListAgents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	activeOnly, err := repo.ListAgents(ctx, "active")
	require.NoError(t, err)
	require.Len(t, activeOnly, 1)
	assert.Equal(t, "agent-1", activeOnly[0].ID)
}
