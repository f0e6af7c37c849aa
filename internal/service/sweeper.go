package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docvault/internal/repository"
	"docvault/internal/storage"
)

const sweepBatchSize = 500

// SweepResult summarises one orphan sweep.
type SweepResult struct {
	Scanned  int      `json:"scanned"`
	Orphans  []string `json:"orphans"`
	Deleted  int      `json:"deleted"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	DryRun   bool     `json:"dryRun"`
	Duration string   `json:"duration"`
}

// OrphanSweeper removes blobs that no document references. Blobs younger
// than the grace period are skipped so an in-flight create or update is
// never raced.
type OrphanSweeper struct {
	store  storage.Storage
	repo   repository.DocumentRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewOrphanSweeper constructs an OrphanSweeper.
func NewOrphanSweeper(store storage.Storage, repo repository.DocumentRepository, logger *zap.Logger) *OrphanSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrphanSweeper{store: store, repo: repo, logger: logger, now: time.Now}
}

// Sweep lists every blob, finds the unreferenced ones older than grace and
// deletes them unless dryRun is set.
func (s *OrphanSweeper) Sweep(ctx context.Context, grace time.Duration, dryRun bool) (*SweepResult, error) {
	start := s.now()
	res := &SweepResult{DryRun: dryRun, Orphans: []string{}}

	objects, err := s.store.List(ctx, storage.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	res.Scanned = len(objects)

	cutoff := start.Add(-grace)
	candidates := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			res.Skipped++
			continue
		}
		candidates = append(candidates, obj.Key)
	}

	for i := 0; i < len(candidates); i += sweepBatchSize {
		batch := candidates[i:min(i+sweepBatchSize, len(candidates))]
		referenced, err := s.repo.ReferencedObjectIDs(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("check references: %w", err)
		}
		for _, key := range batch {
			if referenced[key] {
				continue
			}
			res.Orphans = append(res.Orphans, key)
			if dryRun {
				continue
			}
			if err := s.store.Delete(ctx, key); err != nil {
				res.Failed++
				s.logger.Warn("orphan_delete_failed", zap.String("object_id", key), zap.Error(err))
				continue
			}
			res.Deleted++
		}
	}

	res.Duration = s.now().Sub(start).String()
	s.logger.Info("orphan_sweep_done",
		zap.Int("scanned", res.Scanned),
		zap.Int("orphans", len(res.Orphans)),
		zap.Int("deleted", res.Deleted),
		zap.Int("failed", res.Failed),
		zap.Bool("dry_run", dryRun),
	)
	return res, nil
}
