package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

type mockReviewRepo struct {
	reviews map[string]*models.CourseReview
	deleted []string
}

func (m *mockReviewRepo) ListByCourse(ctx context.Context, courseID string) ([]models.ReviewDetail, error) {
	var list []models.ReviewDetail
	for _, r := range m.reviews {
		if r.CourseID == courseID {
			list = append(list, models.ReviewDetail{CourseReview: *r})
		}
	}
	return list, nil
}

func (m *mockReviewRepo) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.CourseReview, error) {
	for _, r := range m.reviews {
		if r.UserID == userID && r.CourseID == courseID {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockReviewRepo) Upsert(ctx context.Context, review *models.CourseReview) error {
	if m.reviews == nil {
		m.reviews = make(map[string]*models.CourseReview)
	}
	if review.ID == "" {
		review.ID = "r-" + review.UserID
	}
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.reviews[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.reviews, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockReviewCourseRepo struct {
	courses    map[string]models.Course
	recomputed []string
}

func (m *mockReviewCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReviewCourseRepo) UpdateRatingAggregate(ctx context.Context, id string) error {
	m.recomputed = append(m.recomputed, id)
	return nil
}

type mockReviewEnrollmentRepo struct {
	active map[string]bool
}

func (m *mockReviewEnrollmentRepo) ExistsActive(ctx context.Context, userID, courseID string) (bool, error) {
	return m.active[userID+"/"+courseID], nil
}

func TestSubmitReviewRequiresEnrollment(t *testing.T) {
	repo := &mockReviewRepo{}
	courseRepo := &mockReviewCourseRepo{courses: map[string]models.Course{"c1": {ID: "c1"}}}
	enrollRepo := &mockReviewEnrollmentRepo{active: map[string]bool{}}
	svc := NewReviewService(repo, courseRepo, enrollRepo, nil, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), "u1", "c1", SubmitReviewRequest{Rating: 5})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
}

func TestSubmitReviewRefreshesAggregate(t *testing.T) {
	repo := &mockReviewRepo{}
	courseRepo := &mockReviewCourseRepo{courses: map[string]models.Course{"c1": {ID: "c1"}}}
	enrollRepo := &mockReviewEnrollmentRepo{active: map[string]bool{"u1/c1": true}}
	svc := NewReviewService(repo, courseRepo, enrollRepo, nil, nil, zap.NewNop())

	review, err := svc.Submit(context.Background(), "u1", "c1", SubmitReviewRequest{Rating: 4.5, Comment: "좋아요"})
	require.NoError(t, err)
	assert.Equal(t, 4.5, review.Rating)
	assert.Equal(t, []string{"c1"}, courseRepo.recomputed)
}

func TestSubmitReviewRejectsOutOfRangeRating(t *testing.T) {
	repo := &mockReviewRepo{}
	courseRepo := &mockReviewCourseRepo{courses: map[string]models.Course{"c1": {ID: "c1"}}}
	enrollRepo := &mockReviewEnrollmentRepo{active: map[string]bool{"u1/c1": true}}
	svc := NewReviewService(repo, courseRepo, enrollRepo, nil, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), "u1", "c1", SubmitReviewRequest{Rating: 6})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeleteReviewOnlyAuthorOrAdmin(t *testing.T) {
	repo := &mockReviewRepo{reviews: map[string]*models.CourseReview{
		"r1": {ID: "r1", UserID: "u1", CourseID: "c1", Rating: 4},
	}}
	courseRepo := &mockReviewCourseRepo{courses: map[string]models.Course{"c1": {ID: "c1"}}}
	enrollRepo := &mockReviewEnrollmentRepo{}
	svc := NewReviewService(repo, courseRepo, enrollRepo, nil, nil, zap.NewNop())

	other := &models.JWTClaims{UserID: "u2", Role: models.RoleStudent}
	err := svc.Delete(context.Background(), other, "u1", "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	admin := &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}
	err = svc.Delete(context.Background(), admin, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, repo.deleted)
}
