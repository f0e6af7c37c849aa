package main

import (
	"github.com/spf13/cobra"

	"docvault/internal/config"
	"docvault/internal/database/migration"
)

func newMigrateCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), cfg, envNeeds{db: true})
			if err != nil {
				return err
			}
			defer e.close()

			return migration.EnsureMigrated(cmd.Context(), e.db, e.log, cfg.Database.Host)
		},
	}
}
