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

type mockCourseRepo struct {
	courses map[string]*models.Course
}

func newMockCourseRepo(courses ...*models.Course) *mockCourseRepo {
	repo := &mockCourseRepo{courses: make(map[string]*models.Course)}
	for _, course := range courses {
		repo.courses[course.ID] = course
	}
	return repo
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *course
	return &copied, nil
}

func (m *mockCourseRepo) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	var out []models.Course
	for _, course := range m.courses {
		if course.InstructorID == instructorID {
			out = append(out, *course)
		}
	}
	return out, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "generated"
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) SetPublished(ctx context.Context, id string, published bool) error {
	if course, ok := m.courses[id]; ok {
		course.Published = published
	}
	return nil
}

type mockCourseCurriculumRepo struct {
	sections map[string][]models.SectionRow
	lessons  map[string]string // lesson id -> course id
	deleted  []string
}

func (m *mockCourseCurriculumRepo) ListSections(ctx context.Context, courseID string) ([]models.SectionRow, error) {
	return m.sections[courseID], nil
}

func (m *mockCourseCurriculumRepo) CreateSection(ctx context.Context, section *models.SectionRow) error {
	section.ID = "s-new"
	if m.sections == nil {
		m.sections = make(map[string][]models.SectionRow)
	}
	m.sections[section.CourseID] = append(m.sections[section.CourseID], *section)
	return nil
}

func (m *mockCourseCurriculumRepo) CreateLesson(ctx context.Context, lesson *models.LessonRow) error {
	lesson.ID = "l-new"
	return nil
}

func (m *mockCourseCurriculumRepo) FindLesson(ctx context.Context, lessonID string) (*models.LessonRow, string, error) {
	courseID, ok := m.lessons[lessonID]
	if !ok {
		return nil, "", sql.ErrNoRows
	}
	return &models.LessonRow{ID: lessonID}, courseID, nil
}

func (m *mockCourseCurriculumRepo) DeleteLesson(ctx context.Context, lessonID string) error {
	m.deleted = append(m.deleted, lessonID)
	return nil
}

func instructorClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleInstructor}
}

func TestCreateCourseStartsUnpublished(t *testing.T) {
	repo := newMockCourseRepo()
	svc := NewCourseService(repo, &mockCourseCurriculumRepo{}, nil, nil, zap.NewNop())

	course, err := svc.Create(context.Background(), "inst-1", models.CreateCourseRequest{
		Title:    "Go 실전",
		Price:    89000,
		Level:    models.LevelIntermediate,
		Category: "프로그래밍",
	})
	require.NoError(t, err)
	assert.False(t, course.Published)
	assert.Equal(t, "inst-1", course.InstructorID)
}

func TestGetHidesDraftFromOthers(t *testing.T) {
	repo := newMockCourseRepo(&models.Course{ID: "c1", InstructorID: "inst-1", Published: false})
	svc := NewCourseService(repo, &mockCourseCurriculumRepo{}, nil, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "c1", &models.JWTClaims{UserID: "u9", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	course, err := svc.Get(context.Background(), "c1", instructorClaims("inst-1"))
	require.NoError(t, err)
	assert.Equal(t, "c1", course.ID)
}

func TestUpdateCourseForbiddenForOtherInstructor(t *testing.T) {
	repo := newMockCourseRepo(&models.Course{ID: "c1", InstructorID: "inst-1", Published: true})
	svc := NewCourseService(repo, &mockCourseCurriculumRepo{}, nil, nil, zap.NewNop())

	title := "변경"
	_, err := svc.Update(context.Background(), "c1", instructorClaims("inst-2"), models.UpdateCourseRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAddSectionRequiresOwnership(t *testing.T) {
	repo := newMockCourseRepo(&models.Course{ID: "c1", InstructorID: "inst-1"})
	curriculum := &mockCourseCurriculumRepo{}
	svc := NewCourseService(repo, curriculum, nil, nil, zap.NewNop())

	_, err := svc.AddSection(context.Background(), "c1", instructorClaims("inst-2"), models.CreateSectionRequest{Title: "기초"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	section, err := svc.AddSection(context.Background(), "c1", instructorClaims("inst-1"), models.CreateSectionRequest{Title: "기초"})
	require.NoError(t, err)
	assert.Equal(t, "c1", section.CourseID)
	assert.NotEmpty(t, section.ID)
}

func TestAddLessonUnknownSection(t *testing.T) {
	repo := newMockCourseRepo(&models.Course{ID: "c1", InstructorID: "inst-1"})
	curriculum := &mockCourseCurriculumRepo{
		sections: map[string][]models.SectionRow{"c1": {{ID: "s1", CourseID: "c1"}}},
	}
	svc := NewCourseService(repo, curriculum, nil, nil, zap.NewNop())

	_, err := svc.AddLesson(context.Background(), "c1", "s-missing", instructorClaims("inst-1"), models.CreateLessonRequest{Title: "소개"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	lesson, err := svc.AddLesson(context.Background(), "c1", "s1", instructorClaims("inst-1"), models.CreateLessonRequest{Title: "소개", Preview: true})
	require.NoError(t, err)
	assert.Equal(t, "s1", lesson.SectionID)
	assert.True(t, lesson.Preview)
}

func TestRemoveLessonFromOtherCourse(t *testing.T) {
	repo := newMockCourseRepo(
		&models.Course{ID: "c1", InstructorID: "inst-1"},
		&models.Course{ID: "c2", InstructorID: "inst-1"},
	)
	curriculum := &mockCourseCurriculumRepo{lessons: map[string]string{"l1": "c2"}}
	svc := NewCourseService(repo, curriculum, nil, nil, zap.NewNop())

	err := svc.RemoveLesson(context.Background(), "c1", "l1", instructorClaims("inst-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, curriculum.deleted)

	require.NoError(t, svc.RemoveLesson(context.Background(), "c2", "l1", instructorClaims("inst-1")))
	assert.Equal(t, []string{"l1"}, curriculum.deleted)
}
