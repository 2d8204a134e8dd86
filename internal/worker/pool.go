package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// maxStoreFailures is how many consecutive store errors a worker tolerates
// before concluding the store is unreachable and stopping the pool.
const maxStoreFailures = 5

// spawnWorkers starts the configured number of worker goroutines.
func (p *Pool) spawnWorkers(ctx context.Context) {
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx, i+1)
	}
}

// workerLoop is the cooperative polling loop for one worker goroutine.
// Cancellation and the persistent stop flag are checked between
// iterations only; an in-flight job is never interrupted.
func (p *Pool) workerLoop(ctx context.Context, workerNum int) {
	defer p.wg.Done()

	logger := p.logger.With(slog.String("worker", fmt.Sprintf("worker-%d", workerNum)))
	logger.Info("Worker started")

	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	storeFailures := 0

	for {
		select {
		case <-p.stopChan:
			logger.Info("Worker stopping")
			return

		case <-ctx.Done():
			logger.Info("Worker stopping, context canceled")
			return

		case <-ticker.C:
			stopped, err := p.settings.WorkersStopped(ctx)
			if err == nil && stopped {
				logger.Info("Stop requested, worker exiting")
				p.Stop()
				return
			}
			if err == nil {
				err = p.processNext(ctx, logger)
			}

			if err != nil {
				storeFailures++
				logger.Error("Store error in worker loop",
					slog.Int("consecutive_failures", storeFailures),
					slog.Any("error", err),
				)
				if storeFailures >= maxStoreFailures {
					logger.Error("Store unreachable, stopping pool")
					p.Stop()
					return
				}
				continue
			}
			storeFailures = 0
		}
	}
}
