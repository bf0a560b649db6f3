package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/catalog"
	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

type mockCatalogCourseRepo struct {
	courses []models.Course
	calls   int
}

func (m *mockCatalogCourseRepo) ListPublished(ctx context.Context) ([]models.Course, error) {
	m.calls++
	return m.courses, nil
}

type memoryCacheRepo struct {
	store map[string][]byte
	sets  int
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	m.store[key] = nil
	m.sets++
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.store = nil
	return nil
}

func catalogFixtureCourses() []models.Course {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.Course{
		{ID: "c1", Title: "파이썬 입문", Category: "프로그래밍", Level: models.LevelBeginner, Price: 0, StudentCount: 5000, Rating: 4.5, Published: true, UpdatedAt: base},
		{ID: "c2", Title: "Go 실전", Category: "프로그래밍", Level: models.LevelIntermediate, Price: 89000, StudentCount: 2100, Rating: 4.9, Published: true, UpdatedAt: base.AddDate(0, 1, 0)},
		{ID: "c3", Title: "디자인 기초", Category: "디자인", Level: models.LevelBeginner, Price: 45000, StudentCount: 900, Rating: 4.2, Published: true, UpdatedAt: base.AddDate(0, 2, 0)},
	}
}

func TestBrowseDefaultSelection(t *testing.T) {
	repo := &mockCatalogCourseRepo{courses: catalogFixtureCourses()}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewCatalogService(repo, cache, nil, zap.NewNop(), time.Minute)

	page, hit, err := svc.Browse(context.Background(), catalog.DefaultSelection())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, page.Total)
	// popularity order
	assert.Equal(t, "c1", page.Courses[0].ID)
	assert.Equal(t, "c2", page.Courses[1].ID)
	// sidebar counts cover the unfiltered set plus the synthetic total
	assert.Equal(t, 3, page.CategoryCounts[catalog.CategoryAll])
	assert.Equal(t, 2, page.CategoryCounts["프로그래밍"])
}

func TestBrowseCountsIgnoreActiveFilter(t *testing.T) {
	repo := &mockCatalogCourseRepo{courses: catalogFixtureCourses()}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewCatalogService(repo, cache, nil, zap.NewNop(), time.Minute)

	sel := catalog.DefaultSelection()
	sel.Category = "디자인"
	page, _, err := svc.Browse(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 2, page.CategoryCounts["프로그래밍"])
}

func TestBrowseRejectsUnknownSort(t *testing.T) {
	repo := &mockCatalogCourseRepo{courses: catalogFixtureCourses()}
	cache := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	svc := NewCatalogService(repo, cache, nil, zap.NewNop(), time.Minute)

	sel := catalog.DefaultSelection()
	sel.SortKey = "alphabetical"
	_, _, err := svc.Browse(context.Background(), sel)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.calls)
}

func TestBrowseWritesCache(t *testing.T) {
	repo := &mockCatalogCourseRepo{courses: catalogFixtureCourses()}
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewCatalogService(repo, cache, nil, zap.NewNop(), time.Minute)

	_, _, err := svc.Browse(context.Background(), catalog.DefaultSelection())
	require.NoError(t, err)
	assert.Equal(t, 1, cacheRepo.sets)
}
