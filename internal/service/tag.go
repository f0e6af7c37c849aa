package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"docvault/internal/apperr"
	"docvault/internal/cache"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// TagListCacheKey is the Redis key holding the sorted tag list.
const TagListCacheKey = "tags:list"

// TagService defines the tag registry use cases.
type TagService interface {
	// List returns all tags, most used first, ties by name.
	List(ctx context.Context) ([]model.Tag, error)
	// Create registers a normalized tag name with a zero usage count.
	Create(ctx context.Context, name string) (*model.Tag, error)
	// Track adjusts usage counts after a document write.
	Track(ctx context.Context, added, removed []string) error
	// Recount recomputes every usage count from the stored documents.
	Recount(ctx context.Context) (map[string]int, error)
}

type tagService struct {
	repo   repository.TagRepository
	docs   repository.DocumentRepository
	cache  *cache.Repository
	ttl    time.Duration
	logger *zap.Logger

	// generation moves on every invalidation so a List that raced a write
	// does not repopulate the cache with what it read before the write.
	generation atomic.Uint64
}

// NewTagService constructs a TagService. cache may be nil or disabled.
func NewTagService(repo repository.TagRepository, docs repository.DocumentRepository, c *cache.Repository, ttl time.Duration, logger *zap.Logger) TagService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tagService{repo: repo, docs: docs, cache: c, ttl: ttl, logger: logger}
}

func (s *tagService) List(ctx context.Context) ([]model.Tag, error) {
	var cached []model.Tag
	err := s.cache.Get(ctx, TagListCacheKey, &cached)
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn("tag_cache_read_failed", zap.Error(err))
	}

	gen := s.generation.Load()
	tags, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorage, fmt.Errorf("list tags: %w", err))
	}
	model.SortTags(tags)

	if s.generation.Load() != gen {
		return tags, nil
	}
	if err := s.cache.Set(ctx, TagListCacheKey, tags, s.ttl); err != nil {
		s.logger.Warn("tag_cache_write_failed", zap.Error(err))
	}
	return tags, nil
}

func (s *tagService) Create(ctx context.Context, name string) (*model.Tag, error) {
	normalized := model.NormalizeTag(name)
	if normalized == "" {
		return nil, apperr.Validation("name: required")
	}
	if len([]rune(normalized)) > model.MaxTagLength {
		return nil, apperr.Validation("name: max %d characters", model.MaxTagLength)
	}

	tag, err := s.repo.Create(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Clone(apperr.ErrConflict, "tag already exists")
		}
		return nil, apperr.Wrap(apperr.ErrStorage, fmt.Errorf("create tag: %w", err))
	}
	s.invalidate(ctx)
	return tag, nil
}

func (s *tagService) Track(ctx context.Context, added, removed []string) error {
	var errs []error
	if err := s.repo.AdjustUsage(ctx, added, 1); err != nil {
		errs = append(errs, fmt.Errorf("increment usage: %w", err))
	}
	if err := s.repo.AdjustUsage(ctx, removed, -1); err != nil {
		errs = append(errs, fmt.Errorf("decrement usage: %w", err))
	}
	if len(added) > 0 || len(removed) > 0 {
		s.invalidate(ctx)
	}
	return errors.Join(errs...)
}

func (s *tagService) Recount(ctx context.Context) (map[string]int, error) {
	counts, err := s.docs.TagUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tag usage: %w", err)
	}
	if err := s.repo.SetUsage(ctx, counts); err != nil {
		return nil, fmt.Errorf("store tag usage: %w", err)
	}
	s.invalidate(ctx)
	return counts, nil
}

func (s *tagService) invalidate(ctx context.Context) {
	s.generation.Add(1)
	if err := s.cache.Delete(ctx, TagListCacheKey); err != nil {
		s.logger.Warn("tag_cache_invalidate_failed", zap.Error(err))
	}
}
