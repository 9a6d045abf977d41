package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/akallepalli/assignment-service/internal/auth"
	"github.com/akallepalli/assignment-service/internal/server"
	"github.com/akallepalli/assignment-service/internal/service"
)

// Defaults applied when a variable is unset or empty.
const (
	defaultPort      = 3000
	defaultDBPath    = "data/assignments.db"
	defaultUsersFile = "opt/users.csv"
)

// loadConfig builds a server.Config from environment variables. getenv is
// os.Getenv outside tests.
func loadConfig(getenv func(string) string) (server.Config, error) {
	cfg := server.Config{
		Port:          defaultPort,
		DBDriver:      server.DriverSQLite,
		DBPath:        defaultDBPath,
		DatabaseURL:   getenv("DATABASE_URL"),
		UsersFile:     defaultUsersFile,
		BcryptCost:    auth.DefaultCost,
		HealthTimeout: service.DefaultHealthTimeout,
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return cfg, fmt.Errorf("PORT: invalid value %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("DB_DRIVER"); v != "" {
		switch d := strings.ToLower(v); d {
		case server.DriverSQLite, server.DriverPostgres:
			cfg.DBDriver = d
		default:
			return cfg, fmt.Errorf("DB_DRIVER: want %q or %q, got %q", server.DriverSQLite, server.DriverPostgres, v)
		}
	}

	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("USERS_FILE"); v != "" {
		cfg.UsersFile = v
	}

	if v := getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("BCRYPT_COST: invalid value %q", v)
		}
		cfg.BcryptCost = cost
	}

	if v := getenv("AUTH_VERIFY_PASSWORD"); v != "" {
		verify, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("AUTH_VERIFY_PASSWORD: invalid value %q", v)
		}
		cfg.VerifyPassword = verify
	}

	if v := getenv("HEALTH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("HEALTH_TIMEOUT: invalid duration %q", v)
		}
		cfg.HealthTimeout = d
	}

	if cfg.DBDriver == server.DriverPostgres && cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=%s", server.DriverPostgres)
	}

	return cfg, nil
}

// parseLevel maps LOG_LEVEL to a slog level; anything unrecognised is INFO.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
