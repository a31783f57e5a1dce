package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"devbox/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent setup and launch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				run, err := store.Find(cmd.Context(), runID)
				if err != nil {
					return err
				}
				steps, err := store.Steps(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				renderRunDetail(out, *run, steps)
				return nil
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					titleCaser.String(run.Phase),
					formatStarted(run.StartedAt),
					formatDuration(run.Duration()),
					string(run.Outcome),
					strconv.Itoa(run.StepCount),
					run.Detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Phase", "Started", "Duration", "Outcome", "Steps", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show the steps of one run (id or unique prefix)")
	return cmd
}

func renderRunDetail(out io.Writer, run journal.Run, steps []journal.Step) {
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "  Phase:    %s\n", titleCaser.String(run.Phase))
	fmt.Fprintf(out, "  Host:     %s\n", run.Hostname)
	fmt.Fprintf(out, "  Started:  %s\n", formatStarted(run.StartedAt))
	fmt.Fprintf(out, "  Duration: %s\n", formatDuration(run.Duration()))
	fmt.Fprintf(out, "  Outcome:  %s\n", run.Outcome)
	if run.Detail != "" {
		fmt.Fprintf(out, "  Detail:   %s\n", run.Detail)
	}
	if len(steps) == 0 {
		return
	}
	rows := make([][]string, 0, len(steps))
	for _, step := range steps {
		rows = append(rows, []string{
			strconv.Itoa(step.Position),
			step.Name,
			step.Policy,
			step.Status,
			formatDuration(step.Duration),
			step.Detail,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Step", "Policy", "Status", "Duration", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatStarted(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
