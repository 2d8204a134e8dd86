package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persistent queue settings",
		Long: `Read and write the persistent settings shared by all queuectl
processes (max_retries, backoff_base, worker_poll_interval,
worker_heartbeat_interval). Changes only affect future scheduling
decisions; jobs already scheduled keep their retry times.`,
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a settings key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Settings.Set(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Config %s set to %s\n", args[0], args[1])
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a settings key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := app.Settings.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if value == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s not set\n", args[0])
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], value)
			return nil
		},
	}

	configCmd.AddCommand(setCmd, getCmd)
	return configCmd
}
