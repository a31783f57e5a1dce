package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"devbox/internal/journal"
	"devbox/internal/launch"
	"devbox/internal/runlock"
	"devbox/internal/services"
)

func newServerCommands(ctx *commandContext) []*cobra.Command {
	start := &cobra.Command{
		Use:   "start",
		Short: "Launch the web UI in the background (postStart hook)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func() error {
				return runStart(cmd, ctx, "start")
			})
		},
	}

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func() error {
				return runStop(cmd, ctx)
			})
		},
	}

	restart := &cobra.Command{
		Use:   "restart",
		Short: "Stop and relaunch the web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func() error {
				if err := runStop(cmd, ctx); err != nil {
					return err
				}
				return runStart(cmd, ctx, "restart")
			})
		},
	}

	return []*cobra.Command{start, stop, restart}
}

func (c *commandContext) withLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

// runStart launches the web UI and prints exactly one outcome line. A server
// that dies inside the liveness window is reported, not returned as an error.
func runStart(cmd *cobra.Command, ctx *commandContext, name string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := ctx.commandLogger(cmd, name)
	if err != nil {
		return err
	}
	defer closeLog()

	runCtx := cmd.Context()
	recorder := ctx.beginRun(runCtx, launch.Phase, logger)
	if id := recorder.runID(); id != "" {
		runCtx = services.WithRunID(runCtx, id)
	}

	outcome, err := launch.Start(runCtx, cfg, launch.Options{Logger: logger})
	if err != nil {
		recorder.step(runCtx, journal.Step{Name: "spawn", Policy: "fatal", Status: "failed", Detail: err.Error()})
		recorder.finish(runCtx, launchFailureOutcome(err), err.Error())
		return err
	}

	status := "ok"
	result := journal.OutcomeSucceeded
	if !outcome.Alive {
		status = "failed"
		result = journal.OutcomeDegraded
	}
	recorder.step(runCtx, journal.Step{Name: "liveness", Policy: "optional", Status: status, Detail: outcome.Message()})
	recorder.finish(runCtx, result, outcome.Message())

	fmt.Fprintln(cmd.OutOrStdout(), outcome.Message())
	return nil
}

func launchFailureOutcome(err error) journal.Outcome {
	if isCancellation(err) {
		return journal.OutcomeInterrupted
	}
	return journal.OutcomeFailed
}

func runStop(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := ctx.commandLogger(cmd, "stop")
	if err != nil {
		return err
	}
	defer closeLog()

	result, err := launch.Stop(services.WithPhase(cmd.Context(), launch.Phase), cfg, logger)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, launch.Phase, "stop", "", err)
	}
	out := cmd.OutOrStdout()
	switch {
	case !result.WasRunning:
		fmt.Fprintln(out, "Web UI is not running")
	case result.Forced:
		fmt.Fprintf(out, "Web UI killed (pid %d did not exit after SIGTERM)\n", result.PID)
	default:
		fmt.Fprintf(out, "Web UI stopped (pid %d)\n", result.PID)
	}
	return nil
}
