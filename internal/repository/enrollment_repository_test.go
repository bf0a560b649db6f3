package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

func TestListEnrollmentsByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "course_id", "enrolled_at", "completed_at", "active", "current_lesson_id",
		"course_title", "user_name", "user_email",
	}).AddRow("e1", "u1", "c1", now, nil, true, nil, "파이썬 입문", "학생", "student@learnflow.dev")
	mock.ExpectQuery("SELECT e.id, e.user_id, e.course_id").
		WithArgs("u1").
		WillReturnRows(rows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).WithArgs("u1").WillReturnRows(countRows)

	enrollments, total, err := repo.List(context.Background(), models.EnrollmentFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "파이썬 입문", enrollments[0].CourseTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"?column?"}).AddRow(1)
	mock.ExpectQuery("SELECT 1 FROM enrollments").WithArgs("u1", "c1").WillReturnRows(rows)

	exists, err := repo.ExistsActive(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsActiveNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT 1 FROM enrollments").
		WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsActive(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEnrollmentDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{UserID: "u1", CourseID: "c1"}
	err := repo.Create(context.Background(), enrollment)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.True(t, enrollment.Active)
	assert.False(t, enrollment.EnrolledAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCompletionIgnoresConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectExec("INSERT INTO lesson_completions").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Upsert(context.Background(), &models.LessonCompletion{
		EnrollmentID: "e1",
		LessonID:     "l1",
		CompletedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
