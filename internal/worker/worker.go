// Package worker runs pools of job-executing goroutines over the shared
// store. Mutual exclusion between workers, including workers in other
// processes, is delegated entirely to the store's atomic claim; the pool
// performs no locking of its own.
package worker

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/queuectl/queuectl/internal/queue"
	"github.com/queuectl/queuectl/internal/queue/settings"
	"github.com/queuectl/queuectl/internal/queue/storage"
)

// Config holds pool configuration. PollInterval and HeartbeatInterval
// default to the persistent settings when zero.
type Config struct {
	Logger            *slog.Logger
	Queue             *queue.Queue
	Settings          *settings.Store
	Concurrency       int
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
}

// Pool owns a set of worker goroutines plus the process-level bookkeeping
// around them: the workers-table registration, the heartbeat loop, and the
// one-time stale-job recovery sweep.
type Pool struct {
	logger      *slog.Logger
	queue       *queue.Queue
	store       *storage.Store
	settings    *settings.Store
	concurrency int
	poll        time.Duration
	heartbeat   time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewPool creates a worker pool.
func NewPool(cfg *Config) *Pool {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Pool{
		logger:      cfg.Logger,
		queue:       cfg.Queue,
		store:       cfg.Queue.Store(),
		settings:    cfg.Settings,
		concurrency: concurrency,
		poll:        cfg.PollInterval,
		heartbeat:   cfg.HeartbeatInterval,
		stopChan:    make(chan struct{}),
	}
}

// Start registers the process, runs the recovery sweep, spawns the worker
// goroutines, and blocks until every worker has exited. Workers exit when
// ctx is canceled or the persistent stop flag is set; a worker that has
// already claimed a job always finishes it and persists the transition
// before returning.
func (p *Pool) Start(ctx context.Context) error {
	now := time.Now().UTC()

	if p.poll <= 0 {
		interval, err := p.settings.PollInterval(ctx)
		if err != nil {
			return err
		}
		p.poll = interval
	}
	if p.heartbeat <= 0 {
		interval, err := p.settings.HeartbeatInterval(ctx)
		if err != nil {
			return err
		}
		p.heartbeat = interval
	}

	// Recover jobs stranded in processing by a crashed pool. Only safe
	// when nobody is actually processing, which the heartbeat window
	// tells us.
	active, err := p.store.ActiveWorkers(ctx, now)
	if err != nil {
		return err
	}
	if active == 0 {
		if _, err := p.store.ReleaseStaleJobs(ctx, now); err != nil {
			return err
		}
	} else {
		p.logger.Info("Skipping stale-job sweep, other workers are alive",
			slog.Int("active_workers", active),
		)
	}

	pid := os.Getpid()
	name, _ := os.Hostname()
	if name == "" {
		name = "worker"
	}

	if err := p.store.RegisterWorker(ctx, pid, name, now); err != nil {
		return err
	}

	p.logger.Info("Starting worker pool",
		slog.Int("concurrency", p.concurrency),
		slog.Duration("poll_interval", p.poll),
	)

	p.wg.Add(1)
	go p.heartbeatLoop(ctx, pid)

	p.spawnWorkers(ctx)
	p.wg.Wait()

	// Not ctx: the pool context is usually already canceled by cleanup time.
	unregCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.UnregisterWorker(unregCtx, pid); err != nil {
		p.logger.Warn("Failed to unregister worker",
			slog.Int("pid", pid),
			slog.Any("error", err),
		)
	}

	p.logger.Info("Worker pool stopped")
	return nil
}

// Stop asks every worker to exit after its current iteration.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
}

// heartbeatLoop keeps the process's workers-table row fresh so `status`
// can report it and other pools skip the recovery sweep.
func (p *Pool) heartbeatLoop(ctx context.Context, pid int) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.store.WorkerHeartbeat(ctx, pid, time.Now().UTC()); err != nil {
				p.logger.Warn("Failed to update worker heartbeat",
					slog.Int("pid", pid),
					slog.Any("error", err),
				)
			}
		}
	}
}
