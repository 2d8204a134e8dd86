package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/queue"
)

func newEnqueueCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <job-json|@file.json>",
		Short: "Enqueue a new job from JSON",
		Long: `Enqueue a new job. The argument is either an inline JSON object or
@/path/to/file.json. The object must contain "command"; "id" and
"max_retries" are optional:

  queuectl enqueue '{"id":"demo1","command":"echo Hello"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args[0]
			if strings.HasPrefix(raw, "@") {
				data, err := os.ReadFile(raw[1:])
				if err != nil {
					return fmt.Errorf("failed to read job file: %w", err)
				}
				raw = string(data)
			}

			var req queue.SubmitRequest
			if err := json.Unmarshal([]byte(raw), &req); err != nil {
				return fmt.Errorf("invalid job JSON: %w", err)
			}

			job, err := app.Queue.Submit(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to enqueue job: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Enqueued job %s (state=%s)\n", job.ID, job.State)
			return nil
		},
	}
}
