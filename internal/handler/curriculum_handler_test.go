package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/middleware"
	"github.com/jeromwolf/LearnFlow/internal/models"
	"github.com/jeromwolf/LearnFlow/internal/service"
)

type fakeCurriculumRepo struct{}

func (f *fakeCurriculumRepo) ListSections(ctx context.Context, courseID string) ([]models.SectionRow, error) {
	return []models.SectionRow{{ID: "s1", CourseID: courseID, Title: "기초", Position: 1}}, nil
}

func (f *fakeCurriculumRepo) ListLessons(ctx context.Context, courseID string) ([]models.LessonRow, error) {
	return []models.LessonRow{
		{ID: "l1", SectionID: "s1", Title: "소개", Position: 1, Preview: true},
		{ID: "l2", SectionID: "s1", Title: "심화", Position: 2},
	}, nil
}

func (f *fakeCurriculumRepo) FindLesson(ctx context.Context, lessonID string) (*models.LessonRow, string, error) {
	return nil, "", sql.ErrNoRows
}

type fakeCurriculumEnrollments struct {
	enrollment *models.Enrollment
	current    *string
}

func (f *fakeCurriculumEnrollments) FindActive(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if f.enrollment == nil {
		return nil, sql.ErrNoRows
	}
	return f.enrollment, nil
}

func (f *fakeCurriculumEnrollments) UpdateCurrentLesson(ctx context.Context, id string, lessonID *string) error {
	f.current = lessonID
	return nil
}

func (f *fakeCurriculumEnrollments) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	return nil
}

type fakeProgress struct{}

func (f *fakeProgress) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.LessonCompletion, error) {
	return nil, nil
}

func (f *fakeProgress) Upsert(ctx context.Context, completion *models.LessonCompletion) error {
	return nil
}

func TestGetCurriculumAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewCurriculumService(&fakeCurriculumRepo{}, &fakeCurriculumEnrollments{}, &fakeProgress{}, zap.NewNop())
	handler := NewCurriculumHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/c1/curriculum", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	var cur models.Curriculum
	require.NoError(t, json.Unmarshal(envelope.Data, &cur))
	require.Len(t, cur.Sections, 1)
	assert.Equal(t, models.LessonAvailable, cur.Sections[0].Lessons[0].State)
	assert.Equal(t, models.LessonLocked, cur.Sections[0].Lessons[1].State)
}

func TestSelectLessonUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewCurriculumService(&fakeCurriculumRepo{}, &fakeCurriculumEnrollments{}, &fakeProgress{}, zap.NewNop())
	handler := NewCurriculumHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses/c1/lessons/l2/select", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}, {Key: "lessonId", Value: "l2"}}

	handler.SelectLesson(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSelectLessonEnrolled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	enrollments := &fakeCurriculumEnrollments{
		enrollment: &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Active: true},
	}
	svc := service.NewCurriculumService(&fakeCurriculumRepo{}, enrollments, &fakeProgress{}, zap.NewNop())
	handler := NewCurriculumHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses/c1/lessons/l2/select", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}, {Key: "lessonId", Value: "l2"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	handler.SelectLesson(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, enrollments.current)
	assert.Equal(t, "l2", *enrollments.current)
}
