package models

import "time"

// CourseReview is a user's rating of a course. One review per user per course.
type CourseReview struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Rating    float64   `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReviewDetail enriches CourseReview with the author's display name.
type ReviewDetail struct {
	CourseReview
	UserName string `db:"user_name" json:"user_name"`
}
