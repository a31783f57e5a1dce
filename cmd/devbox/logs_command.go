package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"devbox/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the web UI log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Server.LogFile
			out := cmd.OutOrStdout()

			if _, err := os.Stat(path); os.IsNotExist(err) && !follow {
				fmt.Fprintf(cmd.ErrOrStderr(), "No web UI log at %s (has devbox start run?)\n", path)
				return nil
			}
			if follow {
				return logs.Follow(cmd.Context(), path, lines, out)
			}
			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
