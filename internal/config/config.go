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
	// HTTP Server
	Port string

	// Backend selection
	StoreBackend string

	// SQLite
	SQLiteDBPath string

	// MongoDB
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// AMQP
	AMQPURL              string
	AMQPExchange         string
	AMQPTransactionQueue string
	AMQPMembershipQueue  string

	// Caching
	CacheSize           int
	TransactionCacheTTL time.Duration
	MonthlyReportTTL    time.Duration
	YearlyReportTTL     time.Duration
	CleanupInterval     time.Duration

	// Reports
	LocationCapacity float64
	TopProducts      int

	// Ledger validation; empty lists accept any value
	AllowedCategories []string
	AllowedLocations  []string

	// Session identity for single-tenant deployments
	DefaultUserID   string
	DefaultUserName string
	DefaultGroupID  string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8082"),

		StoreBackend: getEnv("STORE_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/pantry.db"),

		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "pantry"),
		MongoCollection: getEnv("MONGO_COLLECTION", "transactions"),

		AMQPURL:              getEnv("AMQP_URL", ""),
		AMQPExchange:         getEnv("AMQP_EXCHANGE", "pantry"),
		AMQPTransactionQueue: getEnv("AMQP_TRANSACTION_QUEUE", "transaction_events"),
		AMQPMembershipQueue:  getEnv("AMQP_MEMBERSHIP_QUEUE", "membership_changes"),

		CacheSize:           getEnvInt("CACHE_SIZE", 1000),
		TransactionCacheTTL: getEnvDuration("TRANSACTION_CACHE_TTL", 5*time.Minute),
		MonthlyReportTTL:    getEnvDuration("MONTHLY_REPORT_TTL", 30*time.Minute),
		YearlyReportTTL:     getEnvDuration("YEARLY_REPORT_TTL", 2*time.Hour),
		CleanupInterval:     getEnvDuration("CACHE_CLEANUP_INTERVAL", time.Minute),

		LocationCapacity: getEnvFloat("LOCATION_CAPACITY", 100),
		TopProducts:      getEnvInt("TOP_PRODUCTS", 10),

		AllowedCategories: getEnvList("ALLOWED_CATEGORIES"),
		AllowedLocations:  getEnvList("ALLOWED_LOCATIONS"),

		DefaultUserID:   getEnv("DEFAULT_USER_ID", ""),
		DefaultUserName: getEnv("DEFAULT_USER_NAME", ""),
		DefaultGroupID:  getEnv("DEFAULT_GROUP_ID", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate store backend
	validBackends := []string{"memory", "sqlite", "mongo"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.StoreBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.StoreBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.StoreBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate Mongo configuration if backend is mongo
	if c.StoreBackend == "mongo" {
		if c.MongoURI == "" {
			errors = append(errors, "Mongo URI cannot be empty when using mongo backend")
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "Mongo database name cannot be empty when using mongo backend")
		}
		if c.MongoCollection == "" {
			errors = append(errors, "Mongo collection name cannot be empty when using mongo backend")
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPTransactionQueue == "" {
			errors = append(errors, "AMQP transaction queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPMembershipQueue == "" {
			errors = append(errors, "AMQP membership queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate cache configuration
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.TransactionCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid transaction cache TTL %v: must be at least 1 second", c.TransactionCacheTTL))
	}
	if c.MonthlyReportTTL < c.TransactionCacheTTL {
		errors = append(errors, fmt.Sprintf("invalid monthly report TTL %v: must not be shorter than the transaction cache TTL", c.MonthlyReportTTL))
	}
	if c.YearlyReportTTL < c.MonthlyReportTTL {
		errors = append(errors, fmt.Sprintf("invalid yearly report TTL %v: must not be shorter than the monthly report TTL", c.YearlyReportTTL))
	}
	if c.CleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cleanup interval %v: must be at least 1 second", c.CleanupInterval))
	}

	// Validate report configuration
	if c.LocationCapacity <= 0 {
		errors = append(errors, fmt.Sprintf("invalid location capacity %v: must be positive", c.LocationCapacity))
	}
	if c.TopProducts < 1 {
		errors = append(errors, fmt.Sprintf("invalid top products %d: must be at least 1", c.TopProducts))
	}

	// Return combined errors
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
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

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
