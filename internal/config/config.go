// Package config loads gateway settings from .env files and the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selected by STORE_URI
const (
	StoreSQLite  = "sqlite"
	StoreMongoDB = "mongodb"
)

// Classifier backends selected by CLASSIFIER
const (
	ClassifierStatic      = "static"
	ClassifierRekognition = "rekognition"
)

// SQLite drivers selected by SQLITE_DRIVER
const (
	// DriverModernc is the pure-Go driver registered by modernc.org/sqlite
	DriverModernc = "sqlite"
	// DriverMattn is the CGO driver registered by mattn/go-sqlite3
	DriverMattn = "sqlite3"
)

// Config holds all runtime settings
type Config struct {
	Port    string
	GinMode string

	// StoreURI is either a SQLite file path (or ":memory:") or a mongodb:// URI
	StoreURI string
	// StoreName is the MongoDB database name (ignored for SQLite)
	StoreName string
	// SQLiteDriver selects the database/sql driver used for SQLite
	SQLiteDriver string

	// AdminToken is seeded as an admin credential at startup when set
	AdminToken string

	RateLimitPerMinute     int
	RateLimitSweepInterval time.Duration

	// TrustedProxies lists proxy IPs or CIDRs whose forwarding headers are
	// believed when keying the rate limiter. Empty means the socket peer.
	TrustedProxies []string

	Classifier string
	AWSRegion  string

	LogLevel  string
	LogPretty bool
}

// LoadEnvFiles loads environment variables from .env files
// Loads in priority order: .env.local (highest) → .env → system environment (lowest)
func LoadEnvFiles() error {
	envFiles := []string{".env.local", ".env"}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return nil
}

// Load reads .env files, then builds and validates the configuration from the environment
func Load() (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration using lookup for each variable
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := &Config{
		Port:         get("PORT", "8080"),
		GinMode:      get("GIN_MODE", "release"),
		StoreURI:     get("STORE_URI", "./data/moderation.db"),
		StoreName:    get("STORE_NAME", "image_moderation"),
		SQLiteDriver: get("SQLITE_DRIVER", DriverModernc),
		AdminToken:   get("ADMIN_TOKEN", ""),
		Classifier:   strings.ToLower(get("CLASSIFIER", ClassifierStatic)),
		AWSRegion:    get("AWS_REGION", "us-east-1"),
		LogLevel:     get("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RateLimitPerMinute, err = strconv.Atoi(get("RATE_LIMIT_PER_MINUTE", "60")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}
	if cfg.RateLimitSweepInterval, err = time.ParseDuration(get("RATE_LIMIT_SWEEP_INTERVAL", "5m")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SWEEP_INTERVAL: %w", err)
	}
	cfg.TrustedProxies = splitList(get("TRUSTED_PROXIES", ""))
	if cfg.LogPretty, err = strconv.ParseBool(get("LOG_PRETTY", "false")); err != nil {
		return nil, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1 (got %d)", c.RateLimitPerMinute)
	}
	if c.RateLimitSweepInterval <= 0 {
		return fmt.Errorf("RATE_LIMIT_SWEEP_INTERVAL must be positive (got %s)", c.RateLimitSweepInterval)
	}

	switch c.Classifier {
	case ClassifierStatic, ClassifierRekognition:
	default:
		return fmt.Errorf("unsupported CLASSIFIER %q (expected %q or %q)", c.Classifier, ClassifierStatic, ClassifierRekognition)
	}

	switch c.SQLiteDriver {
	case DriverModernc, DriverMattn:
	default:
		return fmt.Errorf("unsupported SQLITE_DRIVER %q (expected %q or %q)", c.SQLiteDriver, DriverModernc, DriverMattn)
	}

	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("invalid TRUSTED_PROXIES entry %q: expected an IP or CIDR", proxy)
		}
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Port, err)
	}

	return nil
}

// StoreKind reports which storage backend STORE_URI selects
func (c *Config) StoreKind() string {
	if strings.HasPrefix(c.StoreURI, "mongodb://") || strings.HasPrefix(c.StoreURI, "mongodb+srv://") {
		return StoreMongoDB
	}
	return StoreSQLite
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

// splitList parses a comma separated list, dropping blanks
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
