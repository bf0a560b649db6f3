package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/models"
	"github.com/jeromwolf/LearnFlow/internal/service"
)

type fakeCatalogRepo struct {
	courses []models.Course
}

func (f *fakeCatalogRepo) ListPublished(ctx context.Context) ([]models.Course, error) {
	return f.courses, nil
}

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newCatalogHandler() *CatalogHandler {
	repo := &fakeCatalogRepo{courses: []models.Course{
		{ID: "c1", Title: "파이썬 입문", Category: "프로그래밍", Level: models.LevelBeginner, Price: 0, StudentCount: 5000, Published: true, UpdatedAt: time.Now()},
		{ID: "c2", Title: "디자인 기초", Category: "디자인", Level: models.LevelBeginner, Price: 45000, StudentCount: 800, Published: true, UpdatedAt: time.Now()},
	}}
	cache := service.NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	svc := service.NewCatalogService(repo, cache, nil, zap.NewNop(), time.Minute)
	return NewCatalogHandler(svc)
}

func TestBrowseDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCatalogHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses", nil)

	handler.Browse(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	var page models.CatalogPage
	require.NoError(t, json.Unmarshal(envelope.Data, &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.CategoryCounts["all"])
}

func TestBrowseFiltersByCategory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCatalogHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses?category=%EB%94%94%EC%9E%90%EC%9D%B8", nil)

	handler.Browse(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	var page models.CatalogPage
	require.NoError(t, json.Unmarshal(envelope.Data, &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "c2", page.Courses[0].ID)
}

func TestBrowseRejectsUnknownSortKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCatalogHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses?sort=alphabetical", nil)

	handler.Browse(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error["code"])
}

func TestCategories(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCatalogHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/categories", nil)

	handler.Categories(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	var counts map[string]int
	require.NoError(t, json.Unmarshal(envelope.Data, &counts))
	assert.Equal(t, 1, counts["프로그래밍"])
	assert.Equal(t, 1, counts["디자인"])
}
