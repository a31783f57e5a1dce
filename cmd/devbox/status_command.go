package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"devbox/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show container readiness: system, dependencies, and web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if check {
				var failed []string
				for _, result := range preflight.RunAll(cmd.Context(), cfg) {
					fmt.Fprintln(out, resultLine(result, statusError, colorize))
					if !result.Passed {
						failed = append(failed, result.Name)
					}
				}
				if len(failed) > 0 {
					return fmt.Errorf("readiness checks failed: %s", strings.Join(failed, ", "))
				}
				return nil
			}

			var lines []string
			lines = append(lines, renderSectionHeader("System", colorize)...)
			lines = append(lines, renderStatusLine("Config", statusInfo, ctx.configPathDisplay(), colorize))
			lines = append(lines, resultLine(preflight.CheckDirectoryAccess("Project root", cfg.Project.Root), statusError, colorize))
			lines = append(lines, resultLine(preflight.CheckStateDirectory(cfg.Paths.StateDir), statusError, colorize))
			lines = append(lines, resultLine(preflight.CheckAppConfig(cfg), statusWarn, colorize))
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			statuses, err := preflight.CheckSystemDeps(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			lines = append(lines, renderTable(
				[]string{"Name", "Command", "Version", "Minimum", "State"},
				dependencyRows(statuses),
				nil,
			))
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Web UI", colorize)...)
			process := preflight.CheckWebUIProcess(cfg)
			lines = append(lines, resultLine(process, statusWarn, colorize))
			if process.Passed {
				lines = append(lines, resultLine(preflight.CheckHealth(cmd.Context(), cfg.HealthURL()), statusWarn, colorize))
			}
			lines = append(lines, renderStatusLine("Log file", statusInfo, cfg.Server.LogFile, colorize))

			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Run every readiness check and exit non-zero if any fails")
	return cmd
}

func (c *commandContext) configPathDisplay() string {
	if !c.configExists {
		return c.configResolved + " (not found; defaults in use)"
	}
	return c.configResolved
}
