package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/queue/domain"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show job and worker status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := app.Queue.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Job counts:")
			for _, st := range domain.AllStates {
				fmt.Fprintf(out, "  %-10s: %d\n", st, status.Jobs[st])
			}
			fmt.Fprintln(out, "Workers:")
			fmt.Fprintf(out, "  active    : %d\n", status.ActiveWorkers)
			return nil
		},
	}
}
