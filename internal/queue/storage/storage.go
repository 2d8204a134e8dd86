package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/queuectl/queuectl/internal/queue/domain"
)

// claimRetries bounds how many CAS rounds a single claim call makes before
// reporting no job available. Losing a round means another worker took the
// candidate, so the caller can simply poll again.
const claimRetries = 3

// Store handles all database operations on the jobs and workers tables.
// It is the sole synchronization point between worker processes: claims
// and terminal transitions are conditional writes keyed on the state the
// writer observed, so concurrent workers can never both own a job.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store instance.
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// CreateJob durably inserts a new job record. Returns
// domain.ErrDuplicateID when the id is already taken.
func (s *Store) CreateJob(ctx context.Context, job *domain.Job) error {
	query := s.db.Rebind(`
		INSERT INTO jobs (id, command, state, attempts, max_retries, created_at, updated_at, next_run_at, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Command,
		job.State,
		job.Attempts,
		job.MaxRetries,
		job.CreatedAt,
		job.UpdatedAt,
		job.NextRunAt,
		job.LastError,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, job.ID)
		}
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// GetJob retrieves a job by id. Returns domain.ErrNotFound when no such
// record exists.
func (s *Store) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	query := s.db.Rebind(`
		SELECT id, command, state, attempts, max_retries, created_at, updated_at, next_run_at, last_error
		FROM jobs
		WHERE id = ?
	`)

	var job domain.Job
	if err := s.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ListJobs returns jobs ordered by creation time, optionally filtered by
// state. An empty filter returns every job.
func (s *Store) ListJobs(ctx context.Context, state domain.State) ([]domain.Job, error) {
	var (
		query string
		args  []interface{}
	)

	if state != "" {
		query = s.db.Rebind(`
			SELECT id, command, state, attempts, max_retries, created_at, updated_at, next_run_at, last_error
			FROM jobs
			WHERE state = ?
			ORDER BY created_at
		`)
		args = []interface{}{state}
	} else {
		query = `
			SELECT id, command, state, attempts, max_retries, created_at, updated_at, next_run_at, last_error
			FROM jobs
			ORDER BY created_at
		`
	}

	jobs := []domain.Job{}
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// CountByState returns the number of jobs in each state. States with no
// jobs are present with a zero count.
func (s *Store) CountByState(ctx context.Context) (map[domain.State]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.State]int, len(domain.AllStates))
	for _, st := range domain.AllStates {
		counts[st] = 0
	}

	for rows.Next() {
		var (
			state domain.State
			count int
		)
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		counts[state] = count
	}

	return counts, rows.Err()
}

// ClaimNextJob atomically selects one runnable job (pending, or failed
// with an elapsed backoff), transitions it to processing, and returns it.
// The transition is a conditional UPDATE keyed on the observed state, so
// two concurrent callers can never claim the same job: the loser's write
// matches zero rows and it moves on to the next candidate. Returns
// domain.ErrNoJobAvailable when nothing is runnable.
func (s *Store) ClaimNextJob(ctx context.Context, now time.Time) (*domain.Job, error) {
	selectQuery := s.db.Rebind(`
		SELECT id, state
		FROM jobs
		WHERE state = ? OR (state = ? AND next_run_at <= ?)
		ORDER BY created_at
		LIMIT 1
	`)
	claimQuery := s.db.Rebind(`
		UPDATE jobs
		SET state = ?, updated_at = ?
		WHERE id = ? AND state = ?
	`)

	for i := 0; i < claimRetries; i++ {
		var candidate struct {
			ID    string       `db:"id"`
			State domain.State `db:"state"`
		}

		err := s.db.GetContext(ctx, &candidate, selectQuery, domain.StatePending, domain.StateFailed, now)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.ErrNoJobAvailable
			}
			return nil, fmt.Errorf("failed to select claim candidate: %w", err)
		}

		res, err := s.db.ExecContext(ctx, claimQuery, domain.StateProcessing, now, candidate.ID, candidate.State)
		if err != nil {
			return nil, fmt.Errorf("failed to claim job: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read claim result: %w", err)
		}
		if affected == 0 {
			// Lost the race for this candidate; try the next one.
			continue
		}

		job, err := s.GetJob(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}

		s.logger.Debug("Job claimed",
			slog.String("job_id", job.ID),
			slog.String("prior_state", candidate.State.String()),
		)

		return job, nil
	}

	return nil, domain.ErrNoJobAvailable
}

// UpdateJob persists a transition with optimistic concurrency: the write
// only lands if the stored state still equals expectedPrior. Returns
// domain.ErrInvalidTransition for moves outside the lifecycle graph,
// domain.ErrConcurrentModification when another writer got there first,
// and domain.ErrNotFound when the row is gone.
func (s *Store) UpdateJob(ctx context.Context, job *domain.Job, expectedPrior domain.State) error {
	if err := domain.ValidateTransition(expectedPrior, job.State); err != nil {
		return err
	}

	query := s.db.Rebind(`
		UPDATE jobs
		SET state = ?, attempts = ?, updated_at = ?, next_run_at = ?, last_error = ?
		WHERE id = ? AND state = ?
	`)

	res, err := s.db.ExecContext(ctx, query,
		job.State,
		job.Attempts,
		job.UpdatedAt,
		job.NextRunAt,
		job.LastError,
		job.ID,
		expectedPrior,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		if _, getErr := s.GetJob(ctx, job.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: %s no longer in state %s", domain.ErrConcurrentModification, job.ID, expectedPrior)
	}

	return nil
}

// RequeueDeadJob moves a dead job back to pending so it can be claimed
// again. Attempts are reset to zero and the last error is cleared; the
// job keeps its original retry budget.
func (s *Store) RequeueDeadJob(ctx context.Context, id string, now time.Time) error {
	query := s.db.Rebind(`
		UPDATE jobs
		SET state = ?, attempts = 0, updated_at = ?, next_run_at = ?, last_error = ''
		WHERE id = ? AND state = ?
	`)

	res, err := s.db.ExecContext(ctx, query, domain.StatePending, now, now, id, domain.StateDead)
	if err != nil {
		return fmt.Errorf("failed to requeue job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read requeue result: %w", err)
	}
	if affected == 0 {
		job, getErr := s.GetJob(ctx, id)
		if getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: %s -> %s (requeue requires %s)", domain.ErrInvalidTransition, job.State, domain.StatePending, domain.StateDead)
	}

	s.logger.Info("Dead job requeued",
		slog.String("job_id", id),
	)

	return nil
}

// ReleaseStaleJobs sweeps every processing job back to pending. It is
// called once at pool startup, before any worker polls, when no live
// worker heartbeat exists; jobs stranded by a crashed worker become
// claimable again instead of staying stuck in processing.
func (s *Store) ReleaseStaleJobs(ctx context.Context, now time.Time) (int64, error) {
	query := s.db.Rebind(`
		UPDATE jobs
		SET state = ?, updated_at = ?, next_run_at = ?
		WHERE state = ?
	`)

	res, err := s.db.ExecContext(ctx, query, domain.StatePending, now, now, domain.StateProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to release stale jobs: %w", err)
	}

	released, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read release result: %w", err)
	}

	if released > 0 {
		s.logger.Warn("Released stale processing jobs",
			slog.Int64("count", released),
		)
	}

	return released, nil
}

// isUniqueViolation reports whether err is a primary-key or unique
// constraint violation from either supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}

	return false
}
