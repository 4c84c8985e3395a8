package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/jobs"
)

// JobKindInvalidate tags retried cache invalidations.
const JobKindInvalidate = "cache.invalidate"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// CacheService wraps the grid cache with hit/miss metrics. Failures are logged and never fail the caller.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	retries    jobEnqueuer
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// SetRetryQueue routes failed invalidations to q so stale grids are eventually dropped.
func (s *CacheService) SetRetryQueue(q jobEnqueuer) {
	if s != nil {
		s.retries = q
	}
}

// RetryInvalidation is the queue handler for JobKindInvalidate jobs.
func (s *CacheService) RetryInvalidation(ctx context.Context, job jobs.Job) error {
	if !s.Enabled() || job.Kind != JobKindInvalidate {
		return nil
	}
	return s.repo.DeleteByPattern(ctx, job.Key)
}

// GridKey names the cached layered grid of a career semester built from the given index version of the term.
func GridKey(termID string, version uint64, careerID string, semester, depth int) string {
	return fmt.Sprintf("grid:%s:v%d:%s:%d:%d", termID, version, careerID, semester, depth)
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get reports whether key was found and decoded into dest.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return hit
}

// Set stores value. A non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.repo.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateTerm drops every cached grid of a term.
func (s *CacheService) InvalidateTerm(ctx context.Context, termID string) {
	s.invalidate(ctx, fmt.Sprintf("grid:%s:*", termID))
}

// InvalidateAll drops every cached grid.
func (s *CacheService) InvalidateAll(ctx context.Context) {
	s.invalidate(ctx, "grid:*")
}

func (s *CacheService) invalidate(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	err := s.repo.DeleteByPattern(ctx, pattern)
	if err == nil {
		return
	}
	s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	if s.retries == nil {
		return
	}
	if err := s.retries.Enqueue(jobs.Job{Kind: JobKindInvalidate, Key: pattern}); err != nil {
		s.logger.Error("cache invalidate not queued", zap.String("pattern", pattern), zap.Error(err))
	}
}
