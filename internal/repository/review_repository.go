package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

// ReviewRepository handles persistence of course reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ListByCourse returns reviews for a course, newest first.
func (r *ReviewRepository) ListByCourse(ctx context.Context, courseID string) ([]models.ReviewDetail, error) {
	const query = `SELECT r.id, r.user_id, r.course_id, r.rating, r.comment, r.created_at,
        u.full_name AS user_name
        FROM course_reviews r
        LEFT JOIN users u ON u.id = r.user_id
        WHERE r.course_id = $1
        ORDER BY r.created_at DESC`
	var reviews []models.ReviewDetail
	if err := r.db.SelectContext(ctx, &reviews, query, courseID); err != nil {
		return nil, fmt.Errorf("list course reviews: %w", err)
	}
	return reviews, nil
}

// FindByUserAndCourse returns the user's review on a course, if any.
func (r *ReviewRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.CourseReview, error) {
	const query = `SELECT id, user_id, course_id, rating, comment, created_at
        FROM course_reviews WHERE user_id = $1 AND course_id = $2 LIMIT 1`
	var review models.CourseReview
	if err := r.db.GetContext(ctx, &review, query, userID, courseID); err != nil {
		return nil, err
	}
	return &review, nil
}

// Upsert creates the user's review or replaces the previous one.
func (r *ReviewRepository) Upsert(ctx context.Context, review *models.CourseReview) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_reviews (id, user_id, course_id, rating, comment, created_at)
        VALUES (:id, :user_id, :course_id, :rating, :comment, :created_at)
        ON CONFLICT (user_id, course_id) DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	return nil
}

// Delete removes a review and reports whether a row was deleted.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_reviews WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
