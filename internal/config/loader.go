package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the brokerage service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	SessionTTL        time.Duration
	NotifyGatewayURL  string
	NotifyGatewayKey  string
	ShutdownGrace     time.Duration
	MigrationsEnabled bool
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; invalid values are accumulated and
// reported together so operators see every problem in one pass.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:          8080,
		SQLiteDSN:         "file:brokerage.db?_pragma=foreign_keys(1)",
		SessionTTL:        24 * time.Hour,
		ShutdownGrace:     10 * time.Second,
		MigrationsEnabled: true,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("BROKERAGE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "BROKERAGE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("BROKERAGE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("BROKERAGE_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "BROKERAGE_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if graceValue := strings.TrimSpace(os.Getenv("BROKERAGE_SHUTDOWN_GRACE")); graceValue != "" {
		grace, err := time.ParseDuration(graceValue)
		if err != nil || grace <= 0 {
			invalid = append(invalid, "BROKERAGE_SHUTDOWN_GRACE")
		} else {
			cfg.ShutdownGrace = grace
		}
	}

	cfg.NotifyGatewayURL = strings.TrimSpace(os.Getenv("BROKERAGE_NOTIFY_GATEWAY_URL"))
	cfg.NotifyGatewayKey = strings.TrimSpace(os.Getenv("BROKERAGE_NOTIFY_GATEWAY_KEY"))

	if migValue := strings.TrimSpace(os.Getenv("BROKERAGE_MIGRATIONS_ENABLED")); migValue != "" {
		enabled, err := strconv.ParseBool(migValue)
		if err != nil {
			invalid = append(invalid, "BROKERAGE_MIGRATIONS_ENABLED")
		} else {
			cfg.MigrationsEnabled = enabled
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
