package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

// ProgressRepository handles persistence of lesson completions.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// ListByEnrollment returns every completion recorded for an enrollment.
func (r *ProgressRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.LessonCompletion, error) {
	const query = `SELECT id, enrollment_id, lesson_id, completed_at
        FROM lesson_completions WHERE enrollment_id = $1 ORDER BY completed_at`
	var completions []models.LessonCompletion
	if err := r.db.SelectContext(ctx, &completions, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list lesson completions: %w", err)
	}
	return completions, nil
}

// Upsert records a completion. Replays keep the original timestamp, so a
// conflicting insert is a no-op.
func (r *ProgressRepository) Upsert(ctx context.Context, completion *models.LessonCompletion) error {
	if completion.ID == "" {
		completion.ID = uuid.NewString()
	}
	const query = `INSERT INTO lesson_completions (id, enrollment_id, lesson_id, completed_at)
        VALUES (:id, :enrollment_id, :lesson_id, :completed_at)
        ON CONFLICT (enrollment_id, lesson_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, completion); err != nil {
		return fmt.Errorf("upsert lesson completion: %w", err)
	}
	return nil
}

// CountByEnrollment returns how many lessons the enrollment has completed.
func (r *ProgressRepository) CountByEnrollment(ctx context.Context, enrollmentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM lesson_completions WHERE enrollment_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, enrollmentID); err != nil {
		return 0, fmt.Errorf("count lesson completions: %w", err)
	}
	return count, nil
}
