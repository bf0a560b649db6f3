package models

import "time"

// Note is a learning annotation pinned to a playback position.
type Note struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	LessonID  string    `db:"lesson_id" json:"lesson_id"`
	Seconds   int       `db:"seconds" json:"seconds"`
	Timestamp string    `db:"timestamp" json:"timestamp"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
