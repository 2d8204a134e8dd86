// Package cli wires the cobra command tree over the queue service. All
// commands share one App so they hit the same database handle and logger.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/config"
	"github.com/queuectl/queuectl/internal/queue"
	"github.com/queuectl/queuectl/internal/queue/settings"
	"github.com/queuectl/queuectl/shared/logger"
	"github.com/queuectl/queuectl/shared/sqldb"
)

// App bundles the shared dependencies handed to every command.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *sqldb.Client
	Queue    *queue.Queue
	Settings *settings.Store
}

// Execute builds the command tree and runs it.
func Execute(app *App) error {
	rootCmd := &cobra.Command{
		Use:           "queuectl",
		Short:         "CLI-based background job queue with workers, retries, and a DLQ",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newEnqueueCmd(app),
		newWorkerCmd(app),
		newStatusCmd(app),
		newListCmd(app),
		newDLQCmd(app),
		newConfigCmd(app),
		newServeCmd(app),
	)

	return rootCmd.Execute()
}
