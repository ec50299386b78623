package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Store backend: memory, sqlite or firestore
	Backend string

	// Identity for the local backends; firestore deployments resolve the
	// user from the auth provider instead.
	UserID string

	// SQLite
	SQLiteDBPath string

	// Firestore
	FirestoreProjectID    string
	GoogleCredentialsFile string

	// AMQP event publishing (optional)
	AMQPURL      string
	AMQPExchange string

	// Google Sheets export (optional)
	SheetsSpreadsheetID string
	SheetsSheetName     string

	// Dashboard
	ReceivablesHorizonDays int
	DashboardCacheTTL      time.Duration
}

func Load() *Config {
	return &Config{
		Port:    getEnv("PORT", "8082"),
		Backend: getEnv("ATLAS_BACKEND", "memory"),
		UserID:  getEnv("ATLAS_USER_ID", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/atlas.db"),

		FirestoreProjectID:    getEnv("FIRESTORE_PROJECT_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "atlas"),

		SheetsSpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsSheetName:     getEnv("SHEETS_SHEET_NAME", "Reports"),

		ReceivablesHorizonDays: getEnvInt("RECEIVABLES_HORIZON_DAYS", 15),
		DashboardCacheTTL:      getEnvDuration("DASHBOARD_CACHE_TTL", 30*time.Second),
	}
}

// Validate checks the configuration and returns a combined error listing
// every problem found.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Backend {
	case "memory", "sqlite", "firestore":
	default:
		problems = append(problems, fmt.Sprintf("invalid backend %q: must be memory, sqlite or firestore", c.Backend))
	}

	if c.Backend != "firestore" && c.UserID == "" {
		problems = append(problems, "ATLAS_USER_ID must be set for local backends")
	}
	if c.Backend == "firestore" && c.FirestoreProjectID == "" {
		problems = append(problems, "FIRESTORE_PROJECT_ID must be set for the firestore backend")
	}

	if c.Backend == "sqlite" {
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLITE_DB_PATH cannot be empty for the sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					problems = append(problems, fmt.Sprintf("cannot create database directory %q: %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL %q: %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP_EXCHANGE cannot be empty when AMQP_URL is set")
		}
	}

	if c.ReceivablesHorizonDays < 1 {
		problems = append(problems, "RECEIVABLES_HORIZON_DAYS must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
