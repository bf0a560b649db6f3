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

type reviewRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.ReviewDetail, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.CourseReview, error)
	Upsert(ctx context.Context, review *models.CourseReview) error
	Delete(ctx context.Context, id string) error
}

type reviewCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	UpdateRatingAggregate(ctx context.Context, id string) error
}

type reviewEnrollmentRepository interface {
	ExistsActive(ctx context.Context, userID, courseID string) (bool, error)
}

// SubmitReviewRequest is the payload for rating a course.
type SubmitReviewRequest struct {
	Rating  float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string  `json:"comment" validate:"max=2000"`
}

// ReviewService manages course ratings. One review per user per course;
// resubmitting replaces the earlier rating. Reviews require an active
// enrollment.
type ReviewService struct {
	repo           reviewRepository
	courseRepo     reviewCourseRepository
	enrollmentRepo reviewEnrollmentRepository
	catalog        *CatalogService
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(repo reviewRepository, courseRepo reviewCourseRepository, enrollmentRepo reviewEnrollmentRepository, catalogSvc *CatalogService, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReviewService{
		repo:           repo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		catalog:        catalogSvc,
		validator:      validate,
		logger:         logger,
	}
}

// ListByCourse returns reviews for a course, newest first.
func (s *ReviewService) ListByCourse(ctx context.Context, courseID string) ([]models.ReviewDetail, error) {
	reviews, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, nil
}

// Submit creates or replaces the user's review and refreshes the course's
// denormalized rating columns.
func (s *ReviewService) Submit(ctx context.Context, userID, courseID string, req SubmitReviewRequest) (*models.CourseReview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	if _, err := s.courseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrolled, err := s.enrollmentRepo.ExistsActive(ctx, userID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "only enrolled users can review a course")
	}

	review := &models.CourseReview{
		UserID:   userID,
		CourseID: courseID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	if err := s.repo.Upsert(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save review")
	}

	if err := s.courseRepo.UpdateRatingAggregate(ctx, courseID); err != nil {
		s.logger.Warn("failed to refresh rating aggregate", zap.String("course_id", courseID), zap.Error(err))
	}
	if s.catalog != nil {
		s.catalog.InvalidateCache(ctx)
	}
	return review, nil
}

// Delete removes the user's review and refreshes aggregates. Admins may
// remove any review.
func (s *ReviewService) Delete(ctx context.Context, actor *models.JWTClaims, userID, courseID string) error {
	review, err := s.repo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}
	if actor == nil || (actor.Role != models.RoleAdmin && actor.UserID != review.UserID) {
		return appErrors.Clone(appErrors.ErrForbidden, "not the review author")
	}

	if err := s.repo.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review")
	}

	if err := s.courseRepo.UpdateRatingAggregate(ctx, courseID); err != nil {
		s.logger.Warn("failed to refresh rating aggregate", zap.String("course_id", courseID), zap.Error(err))
	}
	if s.catalog != nil {
		s.catalog.InvalidateCache(ctx)
	}
	return nil
}
