package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

// CurriculumRepository handles persistence of course sections and lessons.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListSections returns the ordered sections for a course.
func (r *CurriculumRepository) ListSections(ctx context.Context, courseID string) ([]models.SectionRow, error) {
	const query = `SELECT id, course_id, title, duration, position, created_at, updated_at
        FROM course_sections WHERE course_id = $1 ORDER BY position`
	var sections []models.SectionRow
	if err := r.db.SelectContext(ctx, &sections, query, courseID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// ListLessons returns the ordered lessons for every section of a course.
func (r *CurriculumRepository) ListLessons(ctx context.Context, courseID string) ([]models.LessonRow, error) {
	const query = `SELECT l.id, l.section_id, l.title, l.duration, l.position, l.preview, l.video_url, l.created_at, l.updated_at
        FROM lessons l
        JOIN course_sections s ON s.id = l.section_id
        WHERE s.course_id = $1
        ORDER BY s.position, l.position`
	var lessons []models.LessonRow
	if err := r.db.SelectContext(ctx, &lessons, query, courseID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// FindLesson returns a single lesson together with its course id.
func (r *CurriculumRepository) FindLesson(ctx context.Context, lessonID string) (*models.LessonRow, string, error) {
	const query = `SELECT l.id, l.section_id, l.title, l.duration, l.position, l.preview, l.video_url, l.created_at, l.updated_at,
        s.course_id AS course_id
        FROM lessons l
        JOIN course_sections s ON s.id = l.section_id
        WHERE l.id = $1`
	var row struct {
		models.LessonRow
		CourseID string `db:"course_id"`
	}
	if err := r.db.GetContext(ctx, &row, query, lessonID); err != nil {
		return nil, "", err
	}
	return &row.LessonRow, row.CourseID, nil
}

// CreateSection persists a new section.
func (r *CurriculumRepository) CreateSection(ctx context.Context, section *models.SectionRow) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	const query = `INSERT INTO course_sections (id, course_id, title, duration, position, created_at, updated_at)
        VALUES (:id, :course_id, :title, :duration, :position, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// CreateLesson persists a new lesson.
func (r *CurriculumRepository) CreateLesson(ctx context.Context, lesson *models.LessonRow) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now
	const query = `INSERT INTO lessons (id, section_id, title, duration, position, preview, video_url, created_at, updated_at)
        VALUES (:id, :section_id, :title, :duration, :position, :preview, :video_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// DeleteLesson removes a lesson.
func (r *CurriculumRepository) DeleteLesson(ctx context.Context, lessonID string) error {
	const query = `DELETE FROM lessons WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, lessonID); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}
