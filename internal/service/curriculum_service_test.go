package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

type mockCurriculumRepo struct {
	sections []models.SectionRow
	lessons  []models.LessonRow
}

func (m *mockCurriculumRepo) ListSections(ctx context.Context, courseID string) ([]models.SectionRow, error) {
	return m.sections, nil
}

func (m *mockCurriculumRepo) ListLessons(ctx context.Context, courseID string) ([]models.LessonRow, error) {
	return m.lessons, nil
}

func (m *mockCurriculumRepo) FindLesson(ctx context.Context, lessonID string) (*models.LessonRow, string, error) {
	for _, l := range m.lessons {
		if l.ID == lessonID {
			return &l, "c1", nil
		}
	}
	return nil, "", sql.ErrNoRows
}

type mockCurriculumEnrollmentRepo struct {
	enrollment *models.Enrollment
	current    *string
	completed  []time.Time
}

func (m *mockCurriculumEnrollmentRepo) FindActive(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if m.enrollment == nil || m.enrollment.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return m.enrollment, nil
}

func (m *mockCurriculumEnrollmentRepo) UpdateCurrentLesson(ctx context.Context, id string, lessonID *string) error {
	m.current = lessonID
	return nil
}

func (m *mockCurriculumEnrollmentRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	m.completed = append(m.completed, at)
	return nil
}

type mockProgressRepo struct {
	completions []models.LessonCompletion
	upserted    []models.LessonCompletion
}

func (m *mockProgressRepo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.LessonCompletion, error) {
	return m.completions, nil
}

func (m *mockProgressRepo) Upsert(ctx context.Context, completion *models.LessonCompletion) error {
	m.upserted = append(m.upserted, *completion)
	return nil
}

func curriculumFixture() *mockCurriculumRepo {
	return &mockCurriculumRepo{
		sections: []models.SectionRow{
			{ID: "s1", CourseID: "c1", Title: "기초", Position: 1},
			{ID: "s2", CourseID: "c1", Title: "응용", Position: 2},
		},
		lessons: []models.LessonRow{
			{ID: "l1", SectionID: "s1", Title: "소개", Position: 1, Preview: true},
			{ID: "l2", SectionID: "s1", Title: "설치", Position: 2},
			{ID: "l3", SectionID: "s2", Title: "프로젝트", Position: 1},
			{ID: "l4", SectionID: "s2", Title: "마무리", Position: 2},
		},
	}
}

func TestGetCurriculumAnonymousSeesPreviewOnly(t *testing.T) {
	svc := NewCurriculumService(curriculumFixture(), &mockCurriculumEnrollmentRepo{}, &mockProgressRepo{}, zap.NewNop())

	cur, err := svc.GetCurriculum(context.Background(), "c1", "")
	require.NoError(t, err)
	require.Len(t, cur.Sections, 2)

	states := map[string]models.LessonState{}
	for _, s := range cur.Sections {
		for _, l := range s.Lessons {
			states[l.ID] = l.State
		}
	}
	assert.Equal(t, models.LessonAvailable, states["l1"])
	assert.Equal(t, models.LessonLocked, states["l2"])
	assert.Equal(t, models.LessonLocked, states["l3"])
}

func TestGetCurriculumEnrolledSeesEverythingAvailable(t *testing.T) {
	enrollRepo := &mockCurriculumEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Active: true},
	}
	svc := NewCurriculumService(curriculumFixture(), enrollRepo, &mockProgressRepo{}, zap.NewNop())

	cur, err := svc.GetCurriculum(context.Background(), "c1", "u1")
	require.NoError(t, err)
	for _, s := range cur.Sections {
		for _, l := range s.Lessons {
			assert.Equal(t, models.LessonAvailable, l.State, "lesson %s", l.ID)
		}
	}
}

func TestGetCurriculumAppliesCompletionsAndCurrent(t *testing.T) {
	currentID := "l2"
	enrollRepo := &mockCurriculumEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Active: true, CurrentLessonID: &currentID},
	}
	done := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	progressRepo := &mockProgressRepo{completions: []models.LessonCompletion{
		{EnrollmentID: "e1", LessonID: "l1", CompletedAt: done},
	}}
	svc := NewCurriculumService(curriculumFixture(), enrollRepo, progressRepo, zap.NewNop())

	cur, err := svc.GetCurriculum(context.Background(), "c1", "u1")
	require.NoError(t, err)

	var l1, l2 models.Lesson
	for _, s := range cur.Sections {
		for _, l := range s.Lessons {
			switch l.ID {
			case "l1":
				l1 = l
			case "l2":
				l2 = l
			}
		}
	}
	assert.Equal(t, models.LessonCompleted, l1.State)
	require.NotNil(t, l1.CompletedAt)
	assert.Equal(t, done, *l1.CompletedAt)
	assert.Equal(t, models.LessonCurrent, l2.State)
}

func TestSelectLessonRequiresEnrollment(t *testing.T) {
	svc := NewCurriculumService(curriculumFixture(), &mockCurriculumEnrollmentRepo{}, &mockProgressRepo{}, zap.NewNop())

	_, err := svc.SelectLesson(context.Background(), "c1", "u1", "l1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
}

func TestSelectLessonPersistsCurrent(t *testing.T) {
	enrollRepo := &mockCurriculumEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Active: true},
	}
	svc := NewCurriculumService(curriculumFixture(), enrollRepo, &mockProgressRepo{}, zap.NewNop())

	cur, err := svc.SelectLesson(context.Background(), "c1", "u1", "l3")
	require.NoError(t, err)
	require.NotNil(t, enrollRepo.current)
	assert.Equal(t, "l3", *enrollRepo.current)

	found := false
	for _, s := range cur.Sections {
		for _, l := range s.Lessons {
			if l.ID == "l3" {
				assert.Equal(t, models.LessonCurrent, l.State)
				found = true
			}
		}
	}
	assert.True(t, found)
}

func TestSelectUnknownLessonNotFound(t *testing.T) {
	enrollRepo := &mockCurriculumEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Active: true},
	}
	svc := NewCurriculumService(curriculumFixture(), enrollRepo, &mockProgressRepo{}, zap.NewNop())

	_, err := svc.SelectLesson(context.Background(), "c1", "u1", "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Nil(t, enrollRepo.current)
}

func TestCompleteLessonRecordsFirstTimestamp(t *testing.T) {
	enrollRepo := &mockCurriculumEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Active: true},
	}
	first := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	progressRepo := &mockProgressRepo{completions: []models.LessonCompletion{
		{EnrollmentID: "e1", LessonID: "l1", CompletedAt: first},
	}}
	svc := NewCurriculumService(curriculumFixture(), enrollRepo, progressRepo, zap.NewNop())
	svc.now = func() time.Time { return first.Add(time.Hour) }

	summary, err := svc.CompleteLesson(context.Background(), "c1", "u1", "l1")
	require.NoError(t, err)
	require.Len(t, progressRepo.upserted, 1)
	assert.Equal(t, first, progressRepo.upserted[0].CompletedAt)
	assert.Equal(t, 1, summary.CompletedCount)
	assert.Equal(t, 25, summary.Percentage)
}

func TestCompleteFinalLessonMarksEnrollmentDone(t *testing.T) {
	enrollRepo := &mockCurriculumEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Active: true},
	}
	done := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	progressRepo := &mockProgressRepo{completions: []models.LessonCompletion{
		{EnrollmentID: "e1", LessonID: "l1", CompletedAt: done},
		{EnrollmentID: "e1", LessonID: "l2", CompletedAt: done},
		{EnrollmentID: "e1", LessonID: "l3", CompletedAt: done},
	}}
	svc := NewCurriculumService(curriculumFixture(), enrollRepo, progressRepo, zap.NewNop())

	summary, err := svc.CompleteLesson(context.Background(), "c1", "u1", "l4")
	require.NoError(t, err)
	assert.Equal(t, 100, summary.Percentage)
	assert.Len(t, enrollRepo.completed, 1)
}

func TestProgressEmptyCourse(t *testing.T) {
	svc := NewCurriculumService(&mockCurriculumRepo{}, &mockCurriculumEnrollmentRepo{}, &mockProgressRepo{}, zap.NewNop())

	summary, err := svc.Progress(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalCount)
	assert.Equal(t, 0, summary.Percentage)
}
