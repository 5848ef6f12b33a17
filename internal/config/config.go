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
	// Client
	ServerURL    string
	PollInterval time.Duration

	// Engine HTTP server
	Port string

	// Database
	SQLiteDBPath string
}

func Load() *Config {
	return &Config{
		ServerURL:    getEnv("SPLITBOOK_SERVER_URL", "http://localhost:8084"),
		PollInterval: getEnvDuration("SPLITBOOK_POLL_INTERVAL", 5*time.Second),

		Port:         getEnv("PORT", "8084"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/splitbook.db"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.ServerURL == "" {
		errors = append(errors, "server URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.ServerURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid server URL '%s': %v", c.ServerURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid server URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.PollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be at least 1 second", c.PollInterval))
	} else if c.PollInterval > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be at most 1 hour", c.PollInterval))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
