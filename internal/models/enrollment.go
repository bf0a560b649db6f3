package models

import "time"

// Enrollment captures a user's registration to a course.
type Enrollment struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	CourseID        string     `db:"course_id" json:"course_id"`
	EnrolledAt      time.Time  `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Active          bool       `db:"active" json:"active"`
	CurrentLessonID *string    `db:"current_lesson_id" json:"current_lesson_id,omitempty"`
}

// EnrollmentDetail enriches Enrollment with course and user info.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle string `db:"course_title" json:"course_title"`
	UserName    string `db:"user_name" json:"user_name"`
	UserEmail   string `db:"user_email" json:"user_email"`
}

// LessonCompletion records that an enrollment finished a lesson.
type LessonCompletion struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	LessonID     string    `db:"lesson_id" json:"lesson_id"`
	CompletedAt  time.Time `db:"completed_at" json:"completed_at"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	UserID    string
	CourseID  string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
