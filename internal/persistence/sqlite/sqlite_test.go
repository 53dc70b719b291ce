package sqlite

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/brokerage/internal/persistence"
	"github.com/example/brokerage/internal/persistence/sqlite/migration"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := migration.NewManager(pool.DB(), logger)
	require.NoError(t, manager.Run(context.Background()))
	return pool
}

var testClock = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, pool *ConnectionPool, id, role string) persistence.User {
	t.Helper()

	user := persistence.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		FirstName:    "Test",
		LastName:     id,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    testClock,
		UpdatedAt:    testClock,
	}
	require.NoError(t, NewUserRepository(pool).CreateUser(context.Background(), user))
	return user
}

func seedAgent(t *testing.T, pool *ConnectionPool, id, userID string) persistence.Agent {
	t.Helper()

	agent := persistence.Agent{
		ID:             id,
		UserID:         userID,
		Specialization: "life",
		Experience:     3,
		Status:         "active",
		CreatedAt:      testClock,
		UpdatedAt:      testClock,
	}
	require.NoError(t, NewAgentRepository(pool).CreateAgent(context.Background(), agent))
	return agent
}

func seedAppointment(t *testing.T, pool *ConnectionPool, id, customerID, agentID string, start time.Time, status string) persistence.Appointment {
	t.Helper()

	appointment := persistence.Appointment{
		ID:         id,
		CustomerID: customerID,
		AgentID:    agentID,
		DateTime:   start,
		EndTime:    start.Add(time.Hour),
		Status:     status,
		Purpose:    "policy review",
		CreatedAt:  testClock,
		UpdatedAt:  testClock,
	}
	require.NoError(t, NewAppointmentRepository(pool).CreateAppointment(context.Background(), appointment))
	return appointment
}
