package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"devbox/internal/launch"
)

func newEnvCommand(ctx *commandContext) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the environment devbox sets for the web UI",
		Long: "Print the managed variables and the .env entries passed to the web UI. " +
			"Values of secret-looking keys are masked unless --reveal is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dotenv, err := launch.DotEnv(cfg)
			if err != nil {
				return err
			}
			managed := launch.ManagedEnv(cfg)
			overridden := make(map[string]struct{}, len(managed))
			for _, v := range managed {
				overridden[v.Key] = struct{}{}
			}

			rows := make([][]string, 0, len(managed)+len(dotenv))
			for _, v := range managed {
				rows = append(rows, []string{v.Key, v.Value, v.Source})
			}
			for _, v := range dotenv {
				value := v.Value
				if !reveal {
					value = launch.Mask(v.Key, value)
				}
				source := v.Source
				switch _, isManaged := overridden[v.Key]; {
				case isManaged:
					source += " (overridden)"
				case v.Shadowed:
					source += " (process env wins)"
				}
				rows = append(rows, []string{v.Key, value, source})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Variable", "Value", "Source"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show secret values unmasked")
	return cmd
}
