package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/queuectl/queuectl/internal/queue/domain"
)

// processNext claims one runnable job, executes it, and persists the
// resulting transition before the caller resumes polling. A nil return
// with no claim just means the queue was empty; a non-nil return is a
// store-level failure the loop counts toward giving up.
func (p *Pool) processNext(ctx context.Context, logger *slog.Logger) error {
	job, err := p.store.ClaimNextJob(ctx, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrNoJobAvailable) {
			return nil
		}
		return err
	}

	logger.Info("Processing job",
		slog.String("job_id", job.ID),
		slog.String("command", job.Command),
		slog.Int("attempts", job.Attempts),
	)

	execErr := runCommand(job.Command)
	now := time.Now().UTC()

	// The claim is ours, so the outcome must land even when the pool's
	// context was canceled mid-execution. A write through ctx would fail
	// with context.Canceled and strand the job in processing.
	persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if execErr == nil {
		if _, err := p.queue.MarkCompleted(persistCtx, job, now); err != nil {
			return p.reportTransitionError(logger, job.ID, err)
		}
		logger.Info("Job completed",
			slog.String("job_id", job.ID),
		)
		return nil
	}

	updated, err := p.queue.ScheduleFailure(persistCtx, job, execErr.Error(), now)
	if err != nil {
		return p.reportTransitionError(logger, job.ID, err)
	}

	if updated.State == domain.StateDead {
		logger.Warn("Job moved to dead letter queue",
			slog.String("job_id", job.ID),
			slog.Int("attempts", updated.Attempts),
			slog.String("last_error", updated.LastError),
		)
	} else {
		logger.Info("Job scheduled for retry",
			slog.String("job_id", job.ID),
			slog.Int("attempts", updated.Attempts),
			slog.Time("next_run_at", updated.NextRunAt),
		)
	}

	return nil
}

// reportTransitionError separates the lost-write anomaly from real store
// failures. The worker uniquely owns a claimed job, so a concurrent
// modification should not happen; when it does we log it and resume
// polling rather than retrying the same write.
func (p *Pool) reportTransitionError(logger *slog.Logger, jobID string, err error) error {
	if errors.Is(err, domain.ErrConcurrentModification) {
		logger.Error("Claimed job was modified concurrently, dropping result",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		return nil
	}
	return err
}
