package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Persistence
	DataBackend  string
	DataDir      string
	SQLiteDBPath string

	// AMQP (optional; sync requests run inline when unset)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sync
	SyncTarget   string
	SyncTimeout  time.Duration
	SyncInterval time.Duration
}

// Sync target names.
const (
	SyncTargetWebhook = "webhook"
	SyncTargetSheets  = "sheets"
)

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "file"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/financepro.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "financepro"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_requests"),

		SyncTarget:   getEnv("SYNC_TARGET", SyncTargetWebhook),
		SyncTimeout:  getEnvDuration("SYNC_TIMEOUT", 15*time.Second),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", 0),
	}
}

// Validate checks the configuration and returns a combined error when any
// setting is unusable.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errs = append(errs, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [file sqlite]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.SyncTarget {
	case SyncTargetWebhook, SyncTargetSheets:
	default:
		errs = append(errs, fmt.Sprintf("invalid sync target '%s': must be one of [webhook sheets]", c.SyncTarget))
	}

	if c.SyncTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid sync timeout %v: must be at least 1 second", c.SyncTimeout))
	} else if c.SyncTimeout > 5*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid sync timeout %v: must be at most 5 minutes", c.SyncTimeout))
	}

	if c.SyncInterval != 0 {
		if c.SyncInterval < 10*time.Second {
			errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at least 10 seconds", c.SyncInterval))
		} else if c.SyncInterval > 24*time.Hour {
			errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
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
