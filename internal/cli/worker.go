package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/worker"
)

func newWorkerCmd(app *App) *cobra.Command {
	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Worker management",
	}

	var count int

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Run a pool of workers in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// A stop request from a previous run must not kill this pool.
			if err := app.Settings.SetWorkersStop(ctx, false); err != nil {
				return err
			}

			pool := worker.NewPool(&worker.Config{
				Logger:      app.Logger.Logger,
				Queue:       app.Queue,
				Settings:    app.Settings,
				Concurrency: count,
			})

			errChan := make(chan error, 1)
			go func() {
				errChan <- pool.Start(ctx)
			}()

			app.Logger.Info("Worker pool running, press Ctrl+C to stop",
				slog.Int("count", count),
			)

			select {
			case err := <-errChan:
				return err
			case <-ctx.Done():
			}

			// In-flight jobs finish before workers exit; bound the wait.
			shutdownTimeout := app.Config.Worker.ShutdownTimeout
			pool.Stop()

			select {
			case err := <-errChan:
				return err
			case <-time.After(shutdownTimeout):
				app.Logger.Warn("Worker shutdown timeout exceeded, forcing exit")
				return fmt.Errorf("worker pool did not stop within %s", shutdownTimeout)
			}
		},
	}

	startCmd.Flags().IntVar(&count, "count", app.Config.Worker.Count, "Number of workers to start")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Signal running worker pools to stop gracefully",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Settings.SetWorkersStop(context.Background(), true); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Signalled workers to stop gracefully.")
			return nil
		},
	}

	workerCmd.AddCommand(startCmd, stopCmd)
	return workerCmd
}
