package migration

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migration represents one schema migration parsed from the embedded set.
type Migration struct {
	Version     string
	Description string
	SQL         string
	FilePath    string
	Checksum    string
}

// Manager applies pending migrations against a sqlite database.
type Manager struct {
	db     *sql.DB
	source fs.FS
	logger *slog.Logger
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// NewManager builds a Manager over the embedded migration set.
func NewManager(db *sql.DB, logger *slog.Logger) *Manager {
	return NewManagerWithSource(db, embeddedMigrations, logger)
}

// NewManagerWithSource builds a Manager over an explicit migration source,
// used by tests to inject fixture migrations.
func NewManagerWithSource(db *sql.DB, source fs.FS, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{db: db, source: source, logger: logger}
}

// Run applies every pending migration in version order. Each migration runs
// inside its own transaction and is recorded in schema_migrations before the
// next one starts.
func (m *Manager) Run(ctx context.Context) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("migration manager not configured")
	}

	if err := m.initVersionTable(ctx); err != nil {
		return fmt.Errorf("initialize version table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("load applied versions: %w", err)
	}

	migrations, err := m.scan()
	if err != nil {
		return err
	}

	pending := make([]Migration, 0, len(migrations))
	for _, migration := range migrations {
		if _, ok := applied[migration.Version]; !ok {
			pending = append(pending, migration)
		}
	}

	if len(pending) == 0 {
		m.logger.InfoContext(ctx, "schema up to date", "applied", len(applied))
		return nil
	}

	for _, migration := range pending {
		start := time.Now()
		if err := m.execute(ctx, migration); err != nil {
			return &MigrationError{
				Version:   migration.Version,
				FilePath:  migration.FilePath,
				Operation: "execute",
				Err:       fmt.Errorf("%w: %v", ErrMigrationFailed, err),
			}
		}
		m.logger.InfoContext(ctx, "migration applied",
			"version", migration.Version,
			"description", migration.Description,
			"duration", time.Since(start),
		)
	}

	return nil
}

// AppliedVersions returns the ordered list of recorded migration versions.
func (m *Manager) AppliedVersions(ctx context.Context) ([]string, error) {
	if err := m.initVersionTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(applied))
	for version := range applied {
		versions = append(versions, version)
	}
	sort.Strings(versions)
	return versions, nil
}

func (m *Manager) initVersionTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

func (m *Manager) appliedVersions(ctx context.Context) (map[string]struct{}, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}

func (m *Manager) scan() ([]Migration, error) {
	entries, err := fs.ReadDir(m.source, "migrations")
	if err != nil {
		return nil, &MigrationError{FilePath: "migrations", Operation: "read directory", Err: err}
	}

	versions := make(map[string]string, len(entries))
	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		matches := migrationFilePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			return nil, &MigrationError{
				FilePath:  entry.Name(),
				Operation: "validate filename",
				Err:       ErrInvalidMigrationFile,
			}
		}

		path := "migrations/" + entry.Name()
		content, err := fs.ReadFile(m.source, path)
		if err != nil {
			return nil, &MigrationError{FilePath: path, Operation: "read file", Err: err}
		}
		if strings.TrimSpace(string(content)) == "" {
			return nil, &MigrationError{
				Version:   matches[1],
				FilePath:  path,
				Operation: "parse file",
				Err:       ErrInvalidMigrationFile,
			}
		}

		if existing, ok := versions[matches[1]]; ok {
			return nil, &MigrationError{
				Version:   matches[1],
				FilePath:  path,
				Operation: "check duplicates",
				Err:       fmt.Errorf("%w: version in both %s and %s", ErrDuplicateVersion, existing, entry.Name()),
			}
		}
		versions[matches[1]] = entry.Name()

		sum := sha256.Sum256(content)
		migrations = append(migrations, Migration{
			Version:     matches[1],
			Description: strings.ReplaceAll(matches[2], "_", " "),
			SQL:         string(content),
			FilePath:    path,
			Checksum:    hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func (m *Manager) execute(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v (rollback error: %v)", err, rbErr)
		}
		return err
	}

	record := `INSERT INTO schema_migrations (version, checksum, applied_at) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, record, migration.Version, migration.Checksum, time.Now().UTC().Format(time.RFC3339)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v (rollback error: %v)", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
