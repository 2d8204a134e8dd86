// Package queue is the service layer over the persistent job store: it
// owns job submission defaults, the DLQ requeue operation, the backoff
// policy, and the status summary consumed by the CLI and HTTP API.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/queuectl/queuectl/internal/queue/domain"
	"github.com/queuectl/queuectl/internal/queue/settings"
	"github.com/queuectl/queuectl/internal/queue/storage"
)

// SubmitRequest describes a job submission. ID and MaxRetries are
// optional: a missing ID is generated, a missing MaxRetries falls back to
// the persistent default.
type SubmitRequest struct {
	ID         string `json:"id"`
	Command    string `json:"command"`
	MaxRetries *int   `json:"max_retries"`
}

// Status summarizes the queue for the status surfaces.
type Status struct {
	Jobs          map[domain.State]int `json:"jobs"`
	ActiveWorkers int                  `json:"active_workers"`
}

// Queue wires the store and the settings collaborator together.
type Queue struct {
	store    *storage.Store
	settings *settings.Store
	logger   *slog.Logger
}

// New creates a Queue service.
func New(store *storage.Store, settings *settings.Store, logger *slog.Logger) *Queue {
	return &Queue{
		store:    store,
		settings: settings,
		logger:   logger,
	}
}

// Store exposes the underlying job store for collaborators that drive
// claims directly (the worker pool).
func (q *Queue) Store() *storage.Store {
	return q.store
}

// Submit validates a submission, fills in defaults, and durably creates
// the job in state pending with zero attempts. A duplicate id surfaces as
// domain.ErrDuplicateID, never as a crash.
func (q *Queue) Submit(ctx context.Context, req SubmitRequest) (*domain.Job, error) {
	if strings.TrimSpace(req.Command) == "" {
		return nil, fmt.Errorf("job command must not be empty")
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	maxRetries := 0
	if req.MaxRetries != nil {
		if *req.MaxRetries < 0 {
			return nil, fmt.Errorf("max_retries must not be negative")
		}
		maxRetries = *req.MaxRetries
	} else {
		def, err := q.settings.MaxRetriesDefault(ctx)
		if err != nil {
			return nil, err
		}
		maxRetries = def
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:         id,
		Command:    req.Command,
		State:      domain.StatePending,
		Attempts:   0,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
		NextRunAt:  now,
	}

	if err := q.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	q.logger.Info("Job enqueued",
		slog.String("job_id", job.ID),
		slog.Int("max_retries", job.MaxRetries),
	)

	return job, nil
}

// Get returns a single job by id.
func (q *Queue) Get(ctx context.Context, id string) (*domain.Job, error) {
	return q.store.GetJob(ctx, id)
}

// List returns jobs filtered by state; pass "" for all jobs.
func (q *Queue) List(ctx context.Context, state domain.State) ([]domain.Job, error) {
	return q.store.ListJobs(ctx, state)
}

// Requeue moves a dead job back to pending. Valid only from the dead
// state; attempts reset to zero.
func (q *Queue) Requeue(ctx context.Context, id string) error {
	return q.store.RequeueDeadJob(ctx, id, time.Now().UTC())
}

// Status returns per-state job counts and the number of live workers.
func (q *Queue) Status(ctx context.Context) (*Status, error) {
	counts, err := q.store.CountByState(ctx)
	if err != nil {
		return nil, err
	}

	workers, err := q.store.ActiveWorkers(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &Status{
		Jobs:          counts,
		ActiveWorkers: workers,
	}, nil
}

// ScheduleFailure applies the retry policy to a job that just failed while
// processing and persists the resulting transition with optimistic
// concurrency. The attempt is recorded either way: within budget the job
// moves to failed with an exponential backoff, past it the job is
// dead-lettered.
func (q *Queue) ScheduleFailure(ctx context.Context, job *domain.Job, execErr string, now time.Time) (*domain.Job, error) {
	attempts := job.Attempts + 1

	updated := *job
	updated.Attempts = attempts
	updated.UpdatedAt = now
	updated.LastError = domain.TruncateError(execErr)

	if attempts > job.MaxRetries {
		updated.State = domain.StateDead
		updated.NextRunAt = now
	} else {
		base, err := q.settings.BackoffBase(ctx)
		if err != nil {
			return nil, err
		}
		updated.State = domain.StateFailed
		updated.NextRunAt = NextRunAt(now, base, attempts)
	}

	if err := q.store.UpdateJob(ctx, &updated, domain.StateProcessing); err != nil {
		return nil, err
	}

	return &updated, nil
}

// MarkCompleted persists the processing→completed transition.
func (q *Queue) MarkCompleted(ctx context.Context, job *domain.Job, now time.Time) (*domain.Job, error) {
	updated := *job
	updated.State = domain.StateCompleted
	updated.UpdatedAt = now

	if err := q.store.UpdateJob(ctx, &updated, domain.StateProcessing); err != nil {
		return nil, err
	}

	return &updated, nil
}
