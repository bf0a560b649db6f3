package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

// NoteRepository handles persistence of lesson notes.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository constructs the repository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create persists a note. IDs and timestamps are assigned by the caller.
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	const query = `INSERT INTO notes (id, user_id, lesson_id, seconds, timestamp, content, created_at)
        VALUES (:id, :user_id, :lesson_id, :seconds, :timestamp, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// FindByID returns a note by its id.
func (r *NoteRepository) FindByID(ctx context.Context, id string) (*models.Note, error) {
	const query = `SELECT id, user_id, lesson_id, seconds, timestamp, content, created_at
        FROM notes WHERE id = $1`
	var note models.Note
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		return nil, err
	}
	return &note, nil
}

// ListByLesson returns the user's notes on a lesson, oldest playback
// position first.
func (r *NoteRepository) ListByLesson(ctx context.Context, userID, lessonID string) ([]models.Note, error) {
	const query = `SELECT id, user_id, lesson_id, seconds, timestamp, content, created_at
        FROM notes WHERE user_id = $1 AND lesson_id = $2 ORDER BY seconds, created_at`
	var notes []models.Note
	if err := r.db.SelectContext(ctx, &notes, query, userID, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson notes: %w", err)
	}
	return notes, nil
}

// Delete removes a note.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM notes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
