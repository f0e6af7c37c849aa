package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docvault/internal/config"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
)

// minGrace is the shortest window that still covers an upload between the
// blob write and the record commit.
const minGrace = time.Minute

func validateGrace(grace time.Duration, dryRun, force bool) error {
	switch {
	case grace < 0:
		return fmt.Errorf("--grace must not be negative")
	case grace < minGrace && !dryRun && !force:
		return fmt.Errorf("--grace %s is below %s and may delete in-flight uploads; pass --force to proceed", grace, minGrace)
	}
	return nil
}

func newSweepCmd(cfg *config.AppConfig, jsonOutput *bool) *cobra.Command {
	var (
		grace  time.Duration
		dryRun bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete blobs that no document references",
		Long: "Lists every attachment blob and deletes the ones no document references.\n" +
			"Blobs newer than --grace are kept so uploads still in flight are not removed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateGrace(grace, dryRun, force); err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx, cfg, envNeeds{db: true, store: true})
			if err != nil {
				return err
			}
			defer e.close()

			sweeper := service.NewOrphanSweeper(e.store, postgres.NewDocumentPostgres(e.db), e.log)
			res, err := sweeper.Sweep(ctx, grace, dryRun)
			if err != nil {
				return err
			}

			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeSweepResult(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().DurationVar(&grace, "grace", time.Hour, "minimum blob age before it may be deleted")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report orphans without deleting them")
	cmd.Flags().BoolVar(&force, "force", false, "allow a --grace shorter than one minute")
	return cmd
}
