package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

// DashboardRepository aggregates instructor-facing figures.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Summary computes the aggregate dashboard figures for an instructor's
// courses. Revenue is the naive price-times-enrollment sum.
func (r *DashboardRepository) Summary(ctx context.Context, instructorID string) (*models.DashboardSummary, error) {
	const query = `SELECT
        COUNT(*) AS course_count,
        COUNT(*) FILTER (WHERE published) AS published_count,
        COALESCE(SUM(student_count), 0) AS student_count,
        COALESCE((SELECT COUNT(*) FROM enrollments e JOIN courses c2 ON c2.id = e.course_id
            WHERE c2.instructor_id = $1 AND e.active), 0) AS enrollment_count,
        COALESCE((SELECT SUM(c3.price) FROM enrollments e2 JOIN courses c3 ON c3.id = e2.course_id
            WHERE c3.instructor_id = $1), 0) AS revenue_total,
        COALESCE(AVG(rating) FILTER (WHERE review_count > 0), 0) AS average_rating
        FROM courses WHERE instructor_id = $1`

	var row struct {
		CourseCount     int     `db:"course_count"`
		PublishedCount  int     `db:"published_count"`
		StudentCount    int     `db:"student_count"`
		EnrollmentCount int     `db:"enrollment_count"`
		RevenueTotal    int64   `db:"revenue_total"`
		AverageRating   float64 `db:"average_rating"`
	}
	if err := r.db.GetContext(ctx, &row, query, instructorID); err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}

	return &models.DashboardSummary{
		CourseCount:     row.CourseCount,
		PublishedCount:  row.PublishedCount,
		StudentCount:    row.StudentCount,
		EnrollmentCount: row.EnrollmentCount,
		RevenueTotal:    row.RevenueTotal,
		AverageRating:   row.AverageRating,
	}, nil
}

// ExportRows returns the enrollment rows for the instructor's export,
// bounded by limit.
func (r *DashboardRepository) ExportRows(ctx context.Context, instructorID string, limit int) ([]models.EnrollmentExportRow, error) {
	const query = `SELECT c.title AS course_title, u.full_name AS user_name, u.email AS user_email,
        e.enrolled_at, e.completed_at
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        JOIN users u ON u.id = e.user_id
        WHERE c.instructor_id = $1 AND e.active
        ORDER BY e.enrolled_at DESC
        LIMIT $2`
	var rows []models.EnrollmentExportRow
	if err := r.db.SelectContext(ctx, &rows, query, instructorID, limit); err != nil {
		return nil, fmt.Errorf("dashboard export rows: %w", err)
	}
	return rows, nil
}
