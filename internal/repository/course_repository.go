package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `c.id, c.title, c.instructor_id, u.full_name AS instructor_name, c.price, c.original_price,
        c.rating, c.review_count, c.student_count, c.duration, c.level, c.category, c.description, c.tags,
        c.bestseller, c.is_new, c.published, c.created_at, c.updated_at`

// ListPublished returns every published course. The catalog engine filters
// and sorts in memory, so no criteria are pushed into SQL here.
func (r *CourseRepository) ListPublished(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        LEFT JOIN users u ON u.id = c.instructor_id
        WHERE c.published = TRUE
        ORDER BY c.created_at`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}
	return courses, nil
}

// ListByInstructor returns every course owned by the instructor,
// published or not.
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        LEFT JOIN users u ON u.id = c.instructor_id
        WHERE c.instructor_id = $1
        ORDER BY c.created_at`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a single course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        LEFT JOIN users u ON u.id = c.instructor_id
        WHERE c.id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, title, instructor_id, price, original_price, duration, level, category,
        description, tags, bestseller, is_new, published, created_at, updated_at)
        VALUES (:id, :title, :instructor_id, :price, :original_price, :duration, :level, :category,
        :description, :tags, :bestseller, :is_new, :published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites the mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, price = :price, original_price = :original_price,
        duration = :duration, level = :level, category = :category, description = :description,
        tags = :tags, bestseller = :bestseller, is_new = :is_new, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// SetPublished flips the published flag.
func (r *CourseRepository) SetPublished(ctx context.Context, id string, published bool) error {
	const query = `UPDATE courses SET published = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, published); err != nil {
		return fmt.Errorf("set course published: %w", err)
	}
	return nil
}

// IncrementStudentCount bumps the enrolled-student counter.
func (r *CourseRepository) IncrementStudentCount(ctx context.Context, id string, delta int) error {
	const query = `UPDATE courses SET student_count = GREATEST(student_count + $2, 0) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta); err != nil {
		return fmt.Errorf("increment student count: %w", err)
	}
	return nil
}

// UpdateRatingAggregate recomputes the denormalized rating columns from
// the reviews table.
func (r *CourseRepository) UpdateRatingAggregate(ctx context.Context, id string) error {
	const query = `UPDATE courses SET
        rating = COALESCE((SELECT ROUND(AVG(rating)::numeric, 1) FROM course_reviews WHERE course_id = $1), 0),
        review_count = (SELECT COUNT(*) FROM course_reviews WHERE course_id = $1)
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("update rating aggregate: %w", err)
	}
	return nil
}
