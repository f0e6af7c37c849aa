package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docvault/internal/cache"
	"docvault/internal/config"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
)

func newTagsCmd(cfg *config.AppConfig, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Tag registry maintenance",
	}
	cmd.AddCommand(newTagsRecountCmd(cfg, jsonOutput))
	return cmd
}

func newTagsRecountCmd(cfg *config.AppConfig, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "recount",
		Short: "Recompute tag usage counts from the stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, cfg, envNeeds{db: true})
			if err != nil {
				return err
			}
			defer e.close()

			// The server caches the tag list; drop it so the new counts show.
			rdb, err := cache.NewRedis(ctx, cfg.Redis)
			if err != nil {
				e.log.Warn("redis_unavailable", zap.Error(err))
				rdb = nil
			}
			c := cache.NewRepository(rdb, e.log)
			defer c.Close()

			svc := service.NewTagService(postgres.NewTagPostgres(e.db), postgres.NewDocumentPostgres(e.db), c, cfg.Redis.TTL, e.log)
			counts, err := svc.Recount(ctx)
			if err != nil {
				return err
			}

			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), counts)
			}
			return writeTagCounts(cmd.OutOrStdout(), counts)
		},
	}
}
