package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SetPublished(ctx context.Context, id string, published bool) error
}

type courseCurriculumRepository interface {
	ListSections(ctx context.Context, courseID string) ([]models.SectionRow, error)
	CreateSection(ctx context.Context, section *models.SectionRow) error
	CreateLesson(ctx context.Context, lesson *models.LessonRow) error
	FindLesson(ctx context.Context, lessonID string) (*models.LessonRow, string, error)
	DeleteLesson(ctx context.Context, lessonID string) error
}

// CourseService covers the instructor-side course lifecycle: drafts,
// section/lesson authoring, edits and publishing. Instructors manage
// their own courses, admins any.
type CourseService struct {
	repo       courseRepository
	curriculum courseCurriculumRepository
	catalog    *CatalogService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, curriculumRepo courseCurriculumRepository, catalogSvc *CatalogService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{repo: repo, curriculum: curriculumRepo, catalog: catalogSvc, validator: validate, logger: logger}
}

// Get returns a course. Unpublished drafts are only visible to their
// owner and admins.
func (s *CourseService) Get(ctx context.Context, id string, viewer *models.JWTClaims) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Published && !canManageCourse(viewer, course) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// ListMine returns the instructor's courses, drafts included.
func (s *CourseService) ListMine(ctx context.Context, instructorID string) ([]models.Course, error) {
	courses, err := s.repo.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Create registers a new unpublished course draft owned by the caller.
func (s *CourseService) Create(ctx context.Context, instructorID string, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		Title:         req.Title,
		InstructorID:  instructorID,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Duration:      req.Duration,
		Level:         req.Level,
		Category:      req.Category,
		Description:   req.Description,
		Tags:          req.Tags,
		Bestseller:    req.Bestseller,
		IsNew:         req.IsNew,
		Published:     false,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.logger.Info("course created",
		zap.String("course_id", course.ID),
		zap.String("instructor_id", instructorID))
	return course, nil
}

// Update edits course fields. Only set fields are applied.
func (s *CourseService) Update(ctx context.Context, id string, actor *models.JWTClaims, req models.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !canManageCourse(actor, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the course owner")
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		course.OriginalPrice = req.OriginalPrice
	}
	if req.Duration != nil {
		course.Duration = *req.Duration
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Tags != nil {
		course.Tags = req.Tags
	}
	if req.Bestseller != nil {
		course.Bestseller = *req.Bestseller
	}
	if req.IsNew != nil {
		course.IsNew = *req.IsNew
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	if course.Published && s.catalog != nil {
		s.catalog.InvalidateCache(ctx)
	}
	return course, nil
}

// SetPublished flips a course's storefront visibility.
func (s *CourseService) SetPublished(ctx context.Context, id string, actor *models.JWTClaims, published bool) error {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !canManageCourse(actor, course) {
		return appErrors.Clone(appErrors.ErrForbidden, "not the course owner")
	}

	if err := s.repo.SetPublished(ctx, id, published); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set published")
	}

	if s.catalog != nil {
		s.catalog.InvalidateCache(ctx)
	}
	s.logger.Info("course publish state changed",
		zap.String("course_id", id),
		zap.Bool("published", published))
	return nil
}

// AddSection appends a section to a course the actor manages.
func (s *CourseService) AddSection(ctx context.Context, courseID string, actor *models.JWTClaims, req models.CreateSectionRequest) (*models.SectionRow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	course, err := s.managedCourse(ctx, courseID, actor)
	if err != nil {
		return nil, err
	}

	section := &models.SectionRow{
		CourseID: courseID,
		Title:    req.Title,
		Duration: req.Duration,
		Position: req.Position,
	}
	if err := s.curriculum.CreateSection(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}

	s.invalidateIfVisible(ctx, course)
	return section, nil
}

// AddLesson appends a lesson to one of the course's sections.
func (s *CourseService) AddLesson(ctx context.Context, courseID, sectionID string, actor *models.JWTClaims, req models.CreateLessonRequest) (*models.LessonRow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	course, err := s.managedCourse(ctx, courseID, actor)
	if err != nil {
		return nil, err
	}

	sections, err := s.curriculum.ListSections(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	found := false
	for _, section := range sections {
		if section.ID == sectionID {
			found = true
			break
		}
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}

	lesson := &models.LessonRow{
		SectionID: sectionID,
		Title:     req.Title,
		Duration:  req.Duration,
		Position:  req.Position,
		Preview:   req.Preview,
		VideoURL:  req.VideoURL,
	}
	if err := s.curriculum.CreateLesson(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}

	s.invalidateIfVisible(ctx, course)
	return lesson, nil
}

// RemoveLesson deletes a lesson from a course the actor manages.
func (s *CourseService) RemoveLesson(ctx context.Context, courseID, lessonID string, actor *models.JWTClaims) error {
	course, err := s.managedCourse(ctx, courseID, actor)
	if err != nil {
		return err
	}

	_, lessonCourseID, err := s.curriculum.FindLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lessonCourseID != courseID {
		return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}

	if err := s.curriculum.DeleteLesson(ctx, lessonID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}

	s.invalidateIfVisible(ctx, course)
	return nil
}

func (s *CourseService) managedCourse(ctx context.Context, courseID string, actor *models.JWTClaims) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !canManageCourse(actor, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the course owner")
	}
	return course, nil
}

func (s *CourseService) invalidateIfVisible(ctx context.Context, course *models.Course) {
	if course.Published && s.catalog != nil {
		s.catalog.InvalidateCache(ctx)
	}
}

func canManageCourse(actor *models.JWTClaims, course *models.Course) bool {
	if actor == nil {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.Role == models.RoleInstructor && actor.UserID == course.InstructorID
}
