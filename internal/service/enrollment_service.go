package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, userID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Deactivate(ctx context.Context, id string) error
}

type enrollmentCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	IncrementStudentCount(ctx context.Context, id string, delta int) error
}

// EnrollmentService covers joining and leaving courses.
type EnrollmentService struct {
	repo       enrollmentRepository
	courseRepo enrollmentCourseRepository
	catalog    *CatalogService
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courseRepo enrollmentCourseRepository, catalogSvc *CatalogService, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courseRepo: courseRepo, catalog: catalogSvc, metrics: metrics, logger: logger}
}

// Enroll registers the user on a published course. Enrolling twice is a
// conflict, not a silent no-op.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Published {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	exists, err := s.repo.ExistsActive(ctx, userID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}

	enrollment := &models.Enrollment{UserID: userID, CourseID: courseID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	if err := s.courseRepo.IncrementStudentCount(ctx, courseID, 1); err != nil {
		s.logger.Warn("failed to bump student count", zap.String("course_id", courseID), zap.Error(err))
	}
	if s.catalog != nil {
		s.catalog.InvalidateCache(ctx)
	}
	if s.metrics != nil {
		s.metrics.RecordEnrollment()
	}

	s.logger.Info("user enrolled",
		zap.String("user_id", userID),
		zap.String("course_id", courseID))
	return enrollment, nil
}

// Unenroll deactivates the user's enrollment. Completion history is kept.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, enrollmentID string) error {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another user")
	}
	if !enrollment.Active {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment already inactive")
	}

	if err := s.repo.Deactivate(ctx, enrollmentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate enrollment")
	}
	if err := s.courseRepo.IncrementStudentCount(ctx, enrollment.CourseID, -1); err != nil {
		s.logger.Warn("failed to decrement student count", zap.Error(err))
	}
	if s.catalog != nil {
		s.catalog.InvalidateCache(ctx)
	}
	return nil
}

// ListMine returns the user's enrollments.
func (s *EnrollmentService) ListMine(ctx context.Context, userID string, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	filter.UserID = userID
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, total, nil
}

// List returns enrollments across users; admin only, enforced at the route.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, total, nil
}
