// Package settings exposes the persistent key-value tunables shared by
// every queuectl process: retry budget defaults, backoff base, and worker
// polling intervals. The queue core only reads these values; they are
// mutated through Set (the `queuectl config set` surface).
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// Well-known setting keys.
const (
	KeyMaxRetries        = "max_retries"
	KeyBackoffBase       = "backoff_base"
	KeyPollInterval      = "worker_poll_interval"
	KeyHeartbeatInterval = "worker_heartbeat_interval"
	KeyWorkersStop       = "workers_stop"
)

// defaults are the compiled-in values returned when a key has never been
// set. Interval values are in seconds.
var defaults = map[string]string{
	KeyMaxRetries:        "3",
	KeyBackoffBase:       "2",
	KeyPollInterval:      "1",
	KeyHeartbeatInterval: "2",
	KeyWorkersStop:       "0",
}

// Store reads and writes the settings table.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a settings Store over the shared database.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Get returns the stored value for key, the compiled-in default when the
// key was never set, or "" for a key with no default.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	query := s.db.Rebind(`SELECT value FROM settings WHERE key = ?`)

	var value string
	err := s.db.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return defaults[key], nil
		}
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}

	return value, nil
}

// Set stores a value, overwriting any previous one.
func (s *Store) Set(ctx context.Context, key, value string) error {
	query := s.db.Rebind(`
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`)

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}

	return nil
}

// GetInt returns the value for key parsed as an integer.
func (s *Store) GetInt(ctx context.Context, key string) (int, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setting %q is not an integer: %w", key, err)
	}

	return n, nil
}

// GetFloat returns the value for key parsed as a float.
func (s *Store) GetFloat(ctx context.Context, key string) (float64, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %q is not a number: %w", key, err)
	}

	return f, nil
}

// MaxRetriesDefault returns the retry budget applied to jobs submitted
// without an explicit max_retries.
func (s *Store) MaxRetriesDefault(ctx context.Context) (int, error) {
	return s.GetInt(ctx, KeyMaxRetries)
}

// BackoffBase returns the exponential backoff base used when scheduling a
// retry. It is read at scheduling time, so changing it only affects future
// computations.
func (s *Store) BackoffBase(ctx context.Context) (float64, error) {
	return s.GetFloat(ctx, KeyBackoffBase)
}

// PollInterval returns how long an idle worker waits between claims.
func (s *Store) PollInterval(ctx context.Context) (time.Duration, error) {
	secs, err := s.GetInt(ctx, KeyPollInterval)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// HeartbeatInterval returns how often a worker process refreshes its
// heartbeat row.
func (s *Store) HeartbeatInterval(ctx context.Context) (time.Duration, error) {
	secs, err := s.GetInt(ctx, KeyHeartbeatInterval)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// SetWorkersStop flips the cross-process stop flag polled by worker pools.
func (s *Store) SetWorkersStop(ctx context.Context, stop bool) error {
	value := "0"
	if stop {
		value = "1"
	}
	return s.Set(ctx, KeyWorkersStop, value)
}

// WorkersStopped reports whether a graceful stop has been requested.
// Workers check this between polling iterations, never mid-execution.
func (s *Store) WorkersStopped(ctx context.Context) (bool, error) {
	raw, err := s.Get(ctx, KeyWorkersStop)
	if err != nil {
		return false, err
	}
	return raw == "1", nil
}
