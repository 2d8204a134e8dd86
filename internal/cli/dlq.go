package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/queue/domain"
)

func newDLQCmd(app *App) *cobra.Command {
	dlqCmd := &cobra.Command{
		Use:   "dlq",
		Short: "Dead letter queue operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List dead-lettered jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := app.Queue.List(cmd.Context(), domain.StateDead)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tATTEMPTS\tCOMMAND\tLAST_ERROR")
			for _, j := range jobs {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", j.ID, j.Attempts, j.Command, j.LastError)
			}
			return w.Flush()
		},
	}

	retryCmd := &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Move a dead job back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Queue.Requeue(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Moved dead job %s back to pending.\n", args[0])
			return nil
		},
	}

	dlqCmd.AddCommand(listCmd, retryCmd)
	return dlqCmd
}
