package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN courses c ON c.id = e.course_id
LEFT JOIN users u ON u.id = e.user_id`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("e.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("e.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrolled_at":  "e.enrolled_at",
		"course_title": "c.title",
		"user_name":    "u.full_name",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "enrolled_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "e.enrolled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.user_id, e.course_id, e.enrolled_at, e.completed_at, e.active, e.current_lesson_id,
        c.title AS course_title, u.full_name AS user_name, u.email AS user_email
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, enrolled_at, completed_at, active, current_lesson_id
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindActive returns the active enrollment for a user and course.
func (r *EnrollmentRepository) FindActive(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, enrolled_at, completed_at, active, current_lesson_id
        FROM enrollments WHERE user_id = $1 AND course_id = $2 AND active = TRUE LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, userID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ExistsActive checks if an active enrollment exists for the pair.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2 AND active = TRUE LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	enrollment.Active = true
	const query = `INSERT INTO enrollments (id, user_id, course_id, enrolled_at, completed_at, active, current_lesson_id)
        VALUES (:id, :user_id, :course_id, :enrolled_at, :completed_at, :active, :current_lesson_id)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Deactivate marks an enrollment inactive.
func (r *EnrollmentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE enrollments SET active = FALSE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate enrollment: %w", err)
	}
	return nil
}

// UpdateCurrentLesson stores the lesson the user is watching.
func (r *EnrollmentRepository) UpdateCurrentLesson(ctx context.Context, id string, lessonID *string) error {
	const query = `UPDATE enrollments SET current_lesson_id = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, lessonID); err != nil {
		return fmt.Errorf("update current lesson: %w", err)
	}
	return nil
}

// MarkCompleted stamps the enrollment's course-completion time.
func (r *EnrollmentRepository) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE enrollments SET completed_at = $2 WHERE id = $1 AND completed_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark enrollment completed: %w", err)
	}
	return nil
}
