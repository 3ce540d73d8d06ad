package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nomis52/stagehand/host"
)

func newPlanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the activation order of the root component",
		Long: `plan builds the dependency graph of the configured root and prints every
reachable component in activation order with its dependencies and ancestors.
Nothing is activated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			logger, err := flags.newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			h, err := host.New(cfg, logger.Logger)
			if err != nil {
				return err
			}
			plan, err := h.Plan()
			if err != nil {
				return fmt.Errorf("planning %s: %w", h.Root(), err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderPlan(plan))
			return nil
		},
	}
}
