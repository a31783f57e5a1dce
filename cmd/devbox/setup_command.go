package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"devbox/internal/journal"
	"devbox/internal/provision"
	"devbox/internal/runlock"
	"devbox/internal/services"
)

func newSetupCommand(ctx *commandContext) *cobra.Command {
	var opts provision.Options

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision the container (postCreate hook)",
		Long: "Install OS packages, the Python tool, and project dependencies, seed the " +
			"app config, and run the optional setup script. Package and tool install " +
			"failures are tolerated; dependency sync and setup script failures are fatal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lock, err := runlock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer lock.Release()

			logger, closeLog, err := ctx.commandLogger(cmd, "setup")
			if err != nil {
				return err
			}
			defer closeLog()

			runCtx := cmd.Context()
			recorder := ctx.beginRun(runCtx, provision.Phase, logger)
			if id := recorder.runID(); id != "" {
				runCtx = services.WithRunID(runCtx, id)
			}

			opts.Logger = logger
			opts.OnStep = func(stepCtx context.Context, result provision.StepResult) {
				recorder.step(stepCtx, journalStep(result))
			}
			report, runErr := provision.Setup(runCtx, cfg, opts)

			outcome, detail := setupOutcome(report, runErr)
			recorder.finish(runCtx, outcome, detail)

			renderSetupReport(cmd.OutOrStdout(), report, outcome)
			return runErr
		},
	}

	cmd.Flags().BoolVar(&opts.SkipPackages, "skip-packages", false, "Skip the OS package steps")
	cmd.Flags().BoolVar(&opts.SkipSync, "skip-sync", false, "Skip the Python dependency sync")
	return cmd
}

func journalStep(result provision.StepResult) journal.Step {
	detail := result.Detail
	if result.Err != nil && detail == "" {
		detail = result.Err.Error()
	}
	return journal.Step{
		Name:     result.Name,
		Policy:   string(result.Policy),
		Status:   string(result.Status),
		Detail:   detail,
		Duration: result.Duration,
	}
}

func setupOutcome(report provision.Report, err error) (journal.Outcome, string) {
	switch {
	case isCancellation(err):
		return journal.OutcomeInterrupted, err.Error()
	case err != nil:
		return journal.OutcomeFailed, err.Error()
	case report.Degraded():
		names := make([]string, 0, len(report.Failures()))
		for _, step := range report.Failures() {
			names = append(names, step.Name)
		}
		return journal.OutcomeDegraded, "tolerated failures: " + strings.Join(names, ", ")
	default:
		return journal.OutcomeSucceeded, ""
	}
}

func renderSetupReport(out io.Writer, report provision.Report, outcome journal.Outcome) {
	for _, step := range report.Steps {
		line := fmt.Sprintf("  %-18s %-8s", step.Name, step.Status)
		if step.Detail != "" {
			line += " " + step.Detail
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
	switch outcome {
	case journal.OutcomeSucceeded:
		fmt.Fprintln(out, "Setup complete")
	case journal.OutcomeDegraded:
		fmt.Fprintln(out, "Setup complete with tolerated failures")
	case journal.OutcomeInterrupted:
		fmt.Fprintln(out, "Setup interrupted")
	default:
		if report.Aborted != "" {
			fmt.Fprintf(out, "Setup failed at %s\n", report.Aborted)
		} else {
			fmt.Fprintln(out, "Setup failed")
		}
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
