package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/curriculum"
	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

type noteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	FindByID(ctx context.Context, id string) (*models.Note, error)
	ListByLesson(ctx context.Context, userID, lessonID string) ([]models.Note, error)
	Delete(ctx context.Context, id string) error
}

type noteLessonRepository interface {
	FindLesson(ctx context.Context, lessonID string) (*models.LessonRow, string, error)
}

type noteEnrollmentRepository interface {
	ExistsActive(ctx context.Context, userID, courseID string) (bool, error)
}

// NoteService manages playback-pinned lesson notes. Notes require access
// to the lesson: an active enrollment, or the lesson being a free preview.
type NoteService struct {
	repo           noteRepository
	lessonRepo     noteLessonRepository
	enrollmentRepo noteEnrollmentRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewNoteService constructs a NoteService.
func NewNoteService(repo noteRepository, lessonRepo noteLessonRepository, enrollmentRepo noteEnrollmentRepository, logger *zap.Logger) *NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{
		repo:           repo,
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a note at a playback position on a lesson the user can watch.
func (s *NoteService) Create(ctx context.Context, userID, lessonID string, seconds int, content string) (*models.Note, error) {
	lesson, courseID, err := s.lessonRepo.FindLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	if !lesson.Preview {
		enrolled, err := s.enrollmentRepo.ExistsActive(ctx, userID, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if !enrolled {
			return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
		}
	}

	note, err := curriculum.NewNote(userID, lessonID, seconds, content, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save note")
	}
	return note, nil
}

// ListByLesson returns the user's notes on a lesson ordered by playback
// position.
func (s *NoteService) ListByLesson(ctx context.Context, userID, lessonID string) ([]models.Note, error) {
	notes, err := s.repo.ListByLesson(ctx, userID, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
	}
	return notes, nil
}

// Delete removes one of the user's own notes.
func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	note, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}
	if note.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "note belongs to another user")
	}
	if err := s.repo.Delete(ctx, noteID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete note")
	}
	return nil
}
