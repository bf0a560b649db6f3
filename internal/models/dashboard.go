package models

import "time"

// DashboardSummary aggregates instructor-facing catalog figures.
type DashboardSummary struct {
	CourseCount     int       `json:"course_count"`
	PublishedCount  int       `json:"published_count"`
	StudentCount    int       `json:"student_count"`
	EnrollmentCount int       `json:"enrollment_count"`
	RevenueTotal    int64     `json:"revenue_total"`
	AverageRating   float64   `json:"average_rating"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// EnrollmentExportRow is one line of the dashboard enrollment export.
type EnrollmentExportRow struct {
	CourseTitle string     `db:"course_title"`
	UserName    string     `db:"user_name"`
	UserEmail   string     `db:"user_email"`
	EnrolledAt  time.Time  `db:"enrolled_at"`
	CompletedAt *time.Time `db:"completed_at"`
}
