package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// Registers the pure-Go "sqlite" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/boomchecker/moderation-gateway/internal/models"
)

// InMemory is the DSN for a private in-memory database
const InMemory = ":memory:"

// Config holds database configuration options
type Config struct {
	// DatabasePath is the file path to the SQLite database
	// Example: "./data/moderation.db" or ":memory:" for in-memory database
	DatabasePath string

	// DriverName is the database/sql driver: "sqlite" (modernc, pure Go) or "sqlite3" (mattn, CGO)
	DriverName string

	// LogLevel sets GORM logging verbosity
	// Silent = no logs, Error = errors only, Warn = warnings + errors, Info = all queries
	LogLevel logger.LogLevel

	// MaxIdleConns sets the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxOpenConns sets the maximum number of open connections to the database
	MaxOpenConns int

	// ConnMaxLifetime sets the maximum amount of time a connection may be reused
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible default configuration for production
func DefaultConfig(dbPath string) *Config {
	return &Config{
		DatabasePath:    dbPath,
		DriverName:      "sqlite",
		LogLevel:        logger.Warn,
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
	}
}

// TestConfig returns configuration suitable for testing (in-memory database)
// An in-memory database exists per connection, so the pool is pinned to one.
func TestConfig() *Config {
	return &Config{
		DatabasePath:    InMemory,
		DriverName:      "sqlite3",
		LogLevel:        logger.Silent,
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: 0,
	}
}

// InitDB initializes the database connection and runs migrations
// Returns a GORM DB instance or an error if initialization fails
func InitDB(config *Config, log zerolog.Logger) (*gorm.DB, error) {
	if config == nil {
		config = DefaultConfig("./data/moderation.db")
	}
	if config.DriverName == "" {
		config.DriverName = "sqlite"
	}

	if config.DatabasePath != InMemory {
		if err := ensureDBDirectory(config.DatabasePath, log); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else {
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(config.LogLevel),
		NowFunc: func() time.Time {
			// Ensure all GORM timestamps use UTC
			return time.Now().UTC()
		},
	}

	log.Info().
		Str("path", config.DatabasePath).
		Str("driver", config.DriverName).
		Msg("Opening SQLite database")

	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: config.DriverName,
		DSN:        config.DatabasePath,
	}), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database at %s: %w", config.DatabasePath, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	// Concurrent writers wait instead of failing with SQLITE_BUSY
	if err := db.Exec("PRAGMA busy_timeout = 5000;").Error; err != nil {
		log.Warn().Err(err).Msg("Failed to set busy timeout")
	}

	if config.DatabasePath != InMemory {
		if err := db.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
			// Non-fatal: log warning but continue
			log.Warn().Err(err).Msg("Failed to enable WAL mode")
		}
	}

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Database initialized successfully")
	return db, nil
}

// RunMigrations executes GORM AutoMigrate for all models
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Token{},
		&models.UsageRecord{},
	); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	if err := createCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to create custom indexes: %w", err)
	}

	return nil
}

// createCustomIndexes creates indexes that aren't automatically created by GORM tags
func createCustomIndexes(db *gorm.DB) error {
	indexes := []string{
		// Admin lookups during startup seeding
		"CREATE INDEX IF NOT EXISTS idx_tokens_is_admin ON tokens(is_admin);",

		// Per-token usage history ordered by time
		"CREATE INDEX IF NOT EXISTS idx_usages_token_timestamp ON usages(token, timestamp);",
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return fmt.Errorf("failed to create index: %w (SQL: %s)", err, indexSQL)
		}
	}

	return nil
}

// Close gracefully closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}

// Ping checks if the database connection is alive
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// ensureDBDirectory creates the directory for the database file if it doesn't
// exist and verifies it is writable
func ensureDBDirectory(dbPath string, log zerolog.Logger) error {
	dir := filepath.Dir(dbPath)

	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%s exists but is not a directory", dir)
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		log.Info().Str("dir", dir).Msg("Created database directory")
	case err != nil:
		return fmt.Errorf("cannot access database directory %s: %w", dir, err)
	}

	// Try to create a test file to verify write permissions
	testFile := filepath.Join(dir, fmt.Sprintf(".write_test_%d", time.Now().UnixNano()))
	f, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("cannot write to database directory %s: %w (check permissions)", dir, err)
	}
	f.Close()
	os.Remove(testFile)

	return nil
}
