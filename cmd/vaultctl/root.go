package main

import (
	"github.com/spf13/cobra"

	"docvault/internal/config"
)

func newRootCmd(cfg *config.AppConfig) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Operator tool for the docvault document store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(
		newMigrateCmd(cfg),
		newHashCodeCmd(),
		newTagsCmd(cfg, &jsonOutput),
		newSweepCmd(cfg, &jsonOutput),
	)

	return cmd
}
