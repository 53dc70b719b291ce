package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/brokerage/internal/persistence"
	"github.com/example/brokerage/internal/persistence/sqlite"
	"github.com/example/brokerage/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style tests.
type SQLiteHarness struct {
	Users         persistence.UserRepository
	Agents        persistence.AgentRepository
	Appointments  persistence.AppointmentRepository
	Plans         persistence.PlanRepository
	Notifications persistence.NotificationRepository
	Sessions      persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness backed by a temporary file that
// is migrated automatically. Cleanup is registered with the provided
// testing.TB, though callers may also Close explicitly.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	dsn := "file:" + filepath.Join(dir, "brokerage.db") + "?_pragma=foreign_keys(1)"

	pool, err := sqlite.Open(dsn)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := migration.NewManager(pool.DB(), logger).Run(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Users:         sqlite.NewUserRepository(pool),
		Agents:        sqlite.NewAgentRepository(pool),
		Appointments:  sqlite.NewAppointmentRepository(pool),
		Plans:         sqlite.NewPlanRepository(pool),
		Notifications: sqlite.NewNotificationRepository(pool),
		Sessions:      sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
