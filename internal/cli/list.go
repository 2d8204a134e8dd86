package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/queue/domain"
)

func newListCmd(app *App) *cobra.Command {
	var stateFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, optionally filtered by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var state domain.State
			if stateFlag != "" {
				parsed, err := domain.ParseState(stateFlag)
				if err != nil {
					return err
				}
				state = parsed
			}

			jobs, err := app.Queue.List(cmd.Context(), state)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATE\tATTEMPTS\tMAX\tCOMMAND")
			for _, j := range jobs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", j.ID, j.State, j.Attempts, j.MaxRetries, j.Command)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&stateFlag, "state", "", "Filter jobs by state (pending, processing, completed, failed, dead)")

	return cmd
}
