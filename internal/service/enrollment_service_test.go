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

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	activeKeys  map[string]bool
	created     *models.Enrollment
	deactivated []string
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var list []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		list = append(list, models.EnrollmentDetail{Enrollment: e})
	}
	return list, len(list), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, userID, courseID string) (bool, error) {
	return m.activeKeys[userID+"/"+courseID], nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enroll"
	}
	enrollment.Active = true
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) Deactivate(ctx context.Context, id string) error {
	if e, ok := m.enrollments[id]; ok {
		e.Active = false
		m.enrollments[id] = e
	}
	m.deactivated = append(m.deactivated, id)
	return nil
}

type mockEnrollmentCourseRepo struct {
	courses    map[string]models.Course
	increments map[string]int
}

func (m *mockEnrollmentCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentCourseRepo) IncrementStudentCount(ctx context.Context, id string, delta int) error {
	if m.increments == nil {
		m.increments = make(map[string]int)
	}
	m.increments[id] += delta
	return nil
}

func TestEnrollHappyPath(t *testing.T) {
	repo := &mockEnrollmentRepo{activeKeys: map[string]bool{}}
	courseRepo := &mockEnrollmentCourseRepo{courses: map[string]models.Course{
		"c1": {ID: "c1", Published: true},
	}}
	svc := NewEnrollmentService(repo, courseRepo, nil, nil, zap.NewNop())

	enrollment, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, enrollment.Active)
	assert.Equal(t, 1, courseRepo.increments["c1"])
	require.NotNil(t, repo.created)
	assert.Equal(t, "u1", repo.created.UserID)
}

func TestEnrollTwiceConflicts(t *testing.T) {
	repo := &mockEnrollmentRepo{activeKeys: map[string]bool{"u1/c1": true}}
	courseRepo := &mockEnrollmentCourseRepo{courses: map[string]models.Course{
		"c1": {ID: "c1", Published: true},
	}}
	svc := NewEnrollmentService(repo, courseRepo, nil, nil, zap.NewNop())

	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
}

func TestEnrollUnpublishedCourseNotFound(t *testing.T) {
	repo := &mockEnrollmentRepo{activeKeys: map[string]bool{}}
	courseRepo := &mockEnrollmentCourseRepo{courses: map[string]models.Course{
		"c1": {ID: "c1", Published: false},
	}}
	svc := NewEnrollmentService(repo, courseRepo, nil, nil, zap.NewNop())

	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUnenrollOtherUsersEnrollmentForbidden(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", UserID: "u1", CourseID: "c1", Active: true},
	}}
	courseRepo := &mockEnrollmentCourseRepo{}
	svc := NewEnrollmentService(repo, courseRepo, nil, nil, zap.NewNop())

	err := svc.Unenroll(context.Background(), "u2", "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deactivated)
}

func TestUnenrollDeactivatesAndDecrements(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", UserID: "u1", CourseID: "c1", Active: true},
	}}
	courseRepo := &mockEnrollmentCourseRepo{}
	svc := NewEnrollmentService(repo, courseRepo, nil, nil, zap.NewNop())

	err := svc.Unenroll(context.Background(), "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, repo.deactivated)
	assert.Equal(t, -1, courseRepo.increments["c1"])
}
