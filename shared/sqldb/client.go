package sqldb

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds database connection configuration. Path is used by the
// sqlite3 driver, DSN by postgres.
type Config struct {
	Driver          string
	Path            string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Client wraps an sqlx.DB for the shared queue database.
type Client struct {
	db     *sqlx.DB
	config *Config
	logger *slog.Logger
}

// NewClient opens the configured database, applies pool settings, and
// verifies the connection. For sqlite3 the parent directory is created and
// WAL mode with a busy timeout is enabled so several local processes can
// share the file safely.
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	var dsn string

	switch config.Driver {
	case DriverSQLite:
		if config.Path == "" {
			return nil, fmt.Errorf("sqlite3 driver requires a database path")
		}
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", config.Path)
	case DriverPostgres:
		if config.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		dsn = config.DSN
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", config.Driver)
	}

	logger.Info("Connecting to database",
		slog.String("driver", config.Driver),
	)

	db, err := sqlx.Connect(config.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client := &Client{
		db:     db,
		config: config,
		logger: logger,
	}

	logger.Info("Database connection established",
		slog.String("driver", config.Driver),
		slog.Int("max_open_conns", config.MaxOpenConns),
	)

	return client, nil
}

// DB returns the underlying sqlx.DB instance.
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// Driver returns the configured driver name.
func (c *Client) Driver() string {
	return c.config.Driver
}

// Close closes the database connection.
func (c *Client) Close() error {
	c.logger.Info("Closing database connection")

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database connection",
				slog.Any("error", err),
			)
			return err
		}
	}

	return nil
}

// Ping checks the database connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// HealthCheck performs a health check on the database.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := c.db.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("database query health check failed: %w", err)
	}

	return nil
}
