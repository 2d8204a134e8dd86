package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ActiveWorkerWindow is how recent a heartbeat must be for a worker row to
// count as alive.
const ActiveWorkerWindow = 10 * time.Second

// RegisterWorker records a running worker process. An existing row for the
// same pid is replaced, since pids recycle across pool restarts.
func (s *Store) RegisterWorker(ctx context.Context, pid int, name string, now time.Time) error {
	query := s.db.Rebind(`
		INSERT INTO workers (pid, name, started_at, last_heartbeat)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (pid) DO UPDATE SET name = excluded.name, started_at = excluded.started_at, last_heartbeat = excluded.last_heartbeat
	`)

	if _, err := s.db.ExecContext(ctx, query, pid, name, now, now); err != nil {
		return fmt.Errorf("failed to register worker: %w", err)
	}

	s.logger.Info("Worker registered",
		slog.Int("pid", pid),
		slog.String("name", name),
	)

	return nil
}

// WorkerHeartbeat refreshes the heartbeat timestamp for a registered worker.
func (s *Store) WorkerHeartbeat(ctx context.Context, pid int, now time.Time) error {
	query := s.db.Rebind(`UPDATE workers SET last_heartbeat = ? WHERE pid = ?`)

	if _, err := s.db.ExecContext(ctx, query, now, pid); err != nil {
		return fmt.Errorf("failed to update worker heartbeat: %w", err)
	}

	return nil
}

// UnregisterWorker removes a worker row on clean shutdown.
func (s *Store) UnregisterWorker(ctx context.Context, pid int) error {
	query := s.db.Rebind(`DELETE FROM workers WHERE pid = ?`)

	if _, err := s.db.ExecContext(ctx, query, pid); err != nil {
		return fmt.Errorf("failed to unregister worker: %w", err)
	}

	return nil
}

// ActiveWorkers counts workers whose heartbeat falls within
// ActiveWorkerWindow of now. Rows left behind by crashed processes age out
// of this count on their own.
func (s *Store) ActiveWorkers(ctx context.Context, now time.Time) (int, error) {
	query := s.db.Rebind(`SELECT COUNT(*) FROM workers WHERE last_heartbeat >= ?`)

	var count int
	if err := s.db.GetContext(ctx, &count, query, now.Add(-ActiveWorkerWindow)); err != nil {
		return 0, fmt.Errorf("failed to count active workers: %w", err)
	}

	return count, nil
}
