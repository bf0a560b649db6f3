package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/catalog"
	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

const catalogCachePrefix = "catalog:courses"

type catalogCourseRepository interface {
	ListPublished(ctx context.Context) ([]models.Course, error)
}

// CatalogService serves the storefront listing: the published course set
// run through the filter engine, with per-selection Redis caching.
type CatalogService struct {
	repo     catalogCourseRepository
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo catalogCourseRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

// Browse returns the catalog page for the given selection and whether it was
// served from cache. The selection is validated before any work happens;
// unknown enum values are rejected, not defaulted.
func (s *CatalogService) Browse(ctx context.Context, sel catalog.Selection) (*models.CatalogPage, bool, error) {
	if err := sel.Validate(); err != nil {
		return nil, false, err
	}

	if s.metrics != nil {
		s.metrics.RecordCatalogRequest(string(sel.SortKey))
	}

	key := catalogCacheKey(sel)
	var cached models.CatalogPage
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	courses, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("catalog_list_published", time.Since(start))
	}

	filtered, err := catalog.Apply(courses, sel)
	if err != nil {
		return nil, false, err
	}

	page := &models.CatalogPage{
		Courses:        filtered,
		CategoryCounts: catalog.CategoryCounts(courses),
		Total:          len(filtered),
	}

	if err := s.cache.Set(ctx, key, page, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache catalog page", zap.Error(err))
	}

	return page, false, nil
}

// Counts returns category tallies over the whole published set.
func (s *CatalogService) Counts(ctx context.Context) (map[string]int, error) {
	courses, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	return catalog.CategoryCounts(courses), nil
}

// InvalidateCache drops every cached catalog page. Called after any course
// mutation that changes what the storefront shows.
func (s *CatalogService) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogCachePrefix+":*"); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func catalogCacheKey(sel catalog.Selection) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		catalogCachePrefix, sel.Search, sel.Category, sel.Level, sel.PriceBucket, sel.SortKey)
}
