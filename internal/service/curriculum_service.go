package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/curriculum"
	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

type curriculumRepository interface {
	ListSections(ctx context.Context, courseID string) ([]models.SectionRow, error)
	ListLessons(ctx context.Context, courseID string) ([]models.LessonRow, error)
	FindLesson(ctx context.Context, lessonID string) (*models.LessonRow, string, error)
}

type curriculumEnrollmentRepository interface {
	FindActive(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	UpdateCurrentLesson(ctx context.Context, id string, lessonID *string) error
	MarkCompleted(ctx context.Context, id string, at time.Time) error
}

type curriculumProgressRepository interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.LessonCompletion, error)
	Upsert(ctx context.Context, completion *models.LessonCompletion) error
}

// CurriculumService assembles the per-user lesson tree and persists the
// outcomes of the progression state machine. The state machine itself is
// pure; this service is the only place its transitions touch storage.
type CurriculumService struct {
	curriculumRepo curriculumRepository
	enrollmentRepo curriculumEnrollmentRepository
	progressRepo   curriculumProgressRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewCurriculumService constructs a CurriculumService.
func NewCurriculumService(
	curriculumRepo curriculumRepository,
	enrollmentRepo curriculumEnrollmentRepository,
	progressRepo curriculumProgressRepository,
	logger *zap.Logger,
) *CurriculumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{
		curriculumRepo: curriculumRepo,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// GetCurriculum returns the section/lesson tree as one user sees it.
// Anonymous viewers and non-enrolled users get preview lessons available
// and everything else locked; active enrollees get the full tree with
// their completions and current lesson applied.
func (s *CurriculumService) GetCurriculum(ctx context.Context, courseID string, userID string) (*models.Curriculum, error) {
	cur, _, err := s.assemble(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

// SelectLesson makes a lesson current for the enrolled user. Selecting a
// locked lesson is a no-op that hands back the unchanged tree so the
// player can keep rendering; completed lessons are selectable (replay).
func (s *CurriculumService) SelectLesson(ctx context.Context, courseID, userID, lessonID string) (*models.Curriculum, error) {
	cur, enrollment, err := s.assemble(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
	}

	next, ok := curriculum.SelectLesson(*cur, lessonID)
	if !ok {
		if _, found := findCurriculumLesson(*cur, lessonID); !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return cur, nil
	}

	if err := s.enrollmentRepo.UpdateCurrentLesson(ctx, enrollment.ID, &lessonID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist current lesson")
	}
	return &next, nil
}

// CompleteLesson records that the enrolled user finished a lesson. The
// first completion timestamp wins; replays do not move it. Returns the
// updated progress summary.
func (s *CurriculumService) CompleteLesson(ctx context.Context, courseID, userID, lessonID string) (*models.ProgressSummary, error) {
	cur, enrollment, err := s.assemble(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
	}

	at := s.now()
	next, ok := curriculum.CompleteLesson(*cur, lessonID, at)
	if !ok {
		if _, found := findCurriculumLesson(*cur, lessonID); !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Clone(appErrors.ErrLessonLocked, "")
	}

	completedAt := at
	if lesson, found := findCurriculumLesson(next, lessonID); found && lesson.CompletedAt != nil {
		completedAt = *lesson.CompletedAt
	}
	if err := s.progressRepo.Upsert(ctx, &models.LessonCompletion{
		EnrollmentID: enrollment.ID,
		LessonID:     lessonID,
		CompletedAt:  completedAt,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record completion")
	}

	summary := curriculum.Progress(next)
	if summary.Percentage == 100 && summary.TotalCount > 0 {
		if err := s.enrollmentRepo.MarkCompleted(ctx, enrollment.ID, at); err != nil {
			s.logger.Warn("failed to mark enrollment completed", zap.Error(err))
		}
	}
	return &summary, nil
}

// Progress returns the user's aggregate completion for a course.
func (s *CurriculumService) Progress(ctx context.Context, courseID, userID string) (*models.ProgressSummary, error) {
	cur, _, err := s.assemble(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	summary := curriculum.Progress(*cur)
	return &summary, nil
}

// assemble builds the derived curriculum for a user. A nil enrollment in
// the result means the user is not actively enrolled.
func (s *CurriculumService) assemble(ctx context.Context, courseID, userID string) (*models.Curriculum, *models.Enrollment, error) {
	sections, err := s.curriculumRepo.ListSections(ctx, courseID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	lessons, err := s.curriculumRepo.ListLessons(ctx, courseID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	var enrollment *models.Enrollment
	if userID != "" {
		enrollment, err = s.enrollmentRepo.FindActive(ctx, userID, courseID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
	}

	completions := map[string]time.Time{}
	var currentLessonID string
	if enrollment != nil {
		rows, err := s.progressRepo.ListByEnrollment(ctx, enrollment.ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completions")
		}
		for _, row := range rows {
			completions[row.LessonID] = row.CompletedAt
		}
		if enrollment.CurrentLessonID != nil {
			currentLessonID = *enrollment.CurrentLessonID
		}
	}

	cur := models.Curriculum{CourseID: courseID, Sections: make([]models.Section, 0, len(sections))}
	for _, sectionRow := range sections {
		section := models.Section{
			ID:       sectionRow.ID,
			Title:    sectionRow.Title,
			Duration: sectionRow.Duration,
		}
		for _, lessonRow := range lessons {
			if lessonRow.SectionID != sectionRow.ID {
				continue
			}
			lesson := models.Lesson{
				ID:       lessonRow.ID,
				Title:    lessonRow.Title,
				Duration: lessonRow.Duration,
				Preview:  lessonRow.Preview,
			}
			switch {
			case enrollment != nil:
				lesson.State = models.LessonAvailable
			case lessonRow.Preview:
				lesson.State = models.LessonAvailable
			default:
				lesson.State = models.LessonLocked
			}
			if ts, done := completions[lessonRow.ID]; done {
				completedAt := ts
				lesson.CompletedAt = &completedAt
				lesson.State = models.LessonCompleted
			}
			if lessonRow.ID == currentLessonID {
				lesson.State = models.LessonCurrent
			}
			section.Lessons = append(section.Lessons, lesson)
		}
		cur.Sections = append(cur.Sections, section)
	}
	return &cur, enrollment, nil
}

func findCurriculumLesson(cur models.Curriculum, lessonID string) (models.Lesson, bool) {
	for _, section := range cur.Sections {
		for _, lesson := range section.Lessons {
			if lesson.ID == lessonID {
				return lesson, true
			}
		}
	}
	return models.Lesson{}, false
}
