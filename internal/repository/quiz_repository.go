package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

// QuizRepository handles persistence of quizzes, attempts, answers and
// per-user quiz progress.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs the repository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

const quizColumns = `id, course_id, title, description, time_limit, max_attempts,
        passing_score, published, created_by, created_at, updated_at`

// CreateQuiz persists a quiz with its questions and choices in one
// transaction.
func (r *QuizRepository) CreateQuiz(ctx context.Context, quiz *models.Quiz, questions []models.QuestionWithChoices) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create quiz: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	const quizInsert = `INSERT INTO quizzes (id, course_id, title, description, time_limit, max_attempts,
        passing_score, published, created_by, created_at, updated_at)
        VALUES (:id, :course_id, :title, :description, :time_limit, :max_attempts,
        :passing_score, :published, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, quizInsert, quiz); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}

	const questionInsert = `INSERT INTO quiz_questions (id, quiz_id, text, type, points, position, explanation)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	const choiceInsert = `INSERT INTO quiz_choices (id, question_id, text, correct, position)
        VALUES ($1, $2, $3, $4, $5)`
	for i := range questions {
		q := &questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.QuizID = quiz.ID
		if _, err := tx.ExecContext(ctx, questionInsert, q.ID, q.QuizID, q.Text, q.Type, q.Points, q.Position, q.Explanation); err != nil {
			return fmt.Errorf("create quiz question: %w", err)
		}
		for j := range q.Choices {
			c := &q.Choices[j]
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			c.QuestionID = q.ID
			if _, err := tx.ExecContext(ctx, choiceInsert, c.ID, c.QuestionID, c.Text, c.Correct, c.Position); err != nil {
				return fmt.Errorf("create quiz choice: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create quiz: %w", err)
	}
	commit = true
	return nil
}

// ListByCourse returns a course's quizzes, optionally only published
// ones, newest first.
func (r *QuizRepository) ListByCourse(ctx context.Context, courseID string, publishedOnly bool) ([]models.Quiz, error) {
	query := fmt.Sprintf(`SELECT %s FROM quizzes WHERE course_id = $1`, quizColumns)
	if publishedOnly {
		query += ` AND published = TRUE`
	}
	query += ` ORDER BY created_at DESC`
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, query, courseID); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// FindQuiz returns a quiz row by id.
func (r *QuizRepository) FindQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	query := fmt.Sprintf(`SELECT %s FROM quizzes WHERE id = $1`, quizColumns)
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, query, id); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// LoadContent returns a quiz with its ordered questions and choices.
func (r *QuizRepository) LoadContent(ctx context.Context, quizID string) (*models.QuizContent, error) {
	quiz, err := r.FindQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	const questionQuery = `SELECT id, quiz_id, text, type, points, position, explanation
        FROM quiz_questions WHERE quiz_id = $1 ORDER BY position, id`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, questionQuery, quizID); err != nil {
		return nil, fmt.Errorf("load quiz questions: %w", err)
	}

	const choiceQuery = `SELECT c.id, c.question_id, c.text, c.correct, c.position
        FROM quiz_choices c
        JOIN quiz_questions q ON q.id = c.question_id
        WHERE q.quiz_id = $1 ORDER BY c.position, c.id`
	var choices []models.Choice
	if err := r.db.SelectContext(ctx, &choices, choiceQuery, quizID); err != nil {
		return nil, fmt.Errorf("load quiz choices: %w", err)
	}

	byQuestion := make(map[string][]models.Choice, len(questions))
	for _, c := range choices {
		byQuestion[c.QuestionID] = append(byQuestion[c.QuestionID], c)
	}
	content := &models.QuizContent{Quiz: *quiz}
	for _, q := range questions {
		content.Questions = append(content.Questions, models.QuestionWithChoices{
			Question: q,
			Choices:  byQuestion[q.ID],
		})
	}
	return content, nil
}

// UpdateQuiz rewrites the mutable quiz settings.
func (r *QuizRepository) UpdateQuiz(ctx context.Context, quiz *models.Quiz) error {
	quiz.UpdatedAt = time.Now().UTC()
	const query = `UPDATE quizzes SET title = :title, description = :description, time_limit = :time_limit,
        max_attempts = :max_attempts, passing_score = :passing_score, published = :published,
        updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, quiz); err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return nil
}

// DeleteQuiz removes a quiz; questions, choices, attempts and answers
// go with it via FK cascade.
func (r *QuizRepository) DeleteQuiz(ctx context.Context, id string) error {
	const query = `DELETE FROM quizzes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quiz rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountAttempts returns how many attempts the user has made on a quiz.
func (r *QuizRepository) CountAttempts(ctx context.Context, quizID, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = $1 AND user_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, quizID, userID); err != nil {
		return 0, fmt.Errorf("count quiz attempts: %w", err)
	}
	return count, nil
}

// CreateAttempt persists a fresh in-progress attempt.
func (r *QuizRepository) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now().UTC()
	}
	const query = `INSERT INTO quiz_attempts (id, quiz_id, user_id, attempt_number, started_at,
        completed_at, time_spent, score, passed, status)
        VALUES (:id, :quiz_id, :user_id, :attempt_number, :started_at,
        :completed_at, :time_spent, :score, :passed, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("create quiz attempt: %w", err)
	}
	return nil
}

// FindAttempt returns an attempt by id.
func (r *QuizRepository) FindAttempt(ctx context.Context, id string) (*models.QuizAttempt, error) {
	const query = `SELECT id, quiz_id, user_id, attempt_number, started_at, completed_at,
        time_spent, score, passed, status
        FROM quiz_attempts WHERE id = $1`
	var attempt models.QuizAttempt
	if err := r.db.GetContext(ctx, &attempt, query, id); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// UpdateAttempt rewrites an attempt's result fields.
func (r *QuizRepository) UpdateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	const query = `UPDATE quiz_attempts SET completed_at = :completed_at, time_spent = :time_spent,
        score = :score, passed = :passed, status = :status
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("update quiz attempt: %w", err)
	}
	return nil
}

// ListAttemptsByUser returns the user's attempts, newest first,
// optionally narrowed to one quiz or one status.
func (r *QuizRepository) ListAttemptsByUser(ctx context.Context, userID, quizID string, status models.AttemptStatus) ([]models.QuizAttempt, error) {
	query := `SELECT id, quiz_id, user_id, attempt_number, started_at, completed_at,
        time_spent, score, passed, status
        FROM quiz_attempts WHERE user_id = $1`
	args := []interface{}{userID}
	if quizID != "" {
		args = append(args, quizID)
		query += fmt.Sprintf(" AND quiz_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY started_at DESC"

	var attempts []models.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, args...); err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return attempts, nil
}

// ReplaceAnswers swaps an attempt's stored answers for the given set
// in one transaction, so a resubmission never leaves stale rows.
func (r *QuizRepository) ReplaceAnswers(ctx context.Context, attemptID string, answers []models.QuizAnswer) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace answers: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_answers WHERE attempt_id = $1`, attemptID); err != nil {
		return fmt.Errorf("clear quiz answers: %w", err)
	}

	const insert = `INSERT INTO quiz_answers (id, attempt_id, question_id, selected_choices, text_answer,
        correct, points_awarded, feedback, graded_by, graded_at)
        VALUES (:id, :attempt_id, :question_id, :selected_choices, :text_answer,
        :correct, :points_awarded, :feedback, :graded_by, :graded_at)`
	for i := range answers {
		a := &answers[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.AttemptID = attemptID
		if _, err := tx.NamedExecContext(ctx, insert, a); err != nil {
			return fmt.Errorf("insert quiz answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace answers: %w", err)
	}
	commit = true
	return nil
}

// ListAnswers returns an attempt's stored answers.
func (r *QuizRepository) ListAnswers(ctx context.Context, attemptID string) ([]models.QuizAnswer, error) {
	const query = `SELECT id, attempt_id, question_id, selected_choices, text_answer,
        correct, points_awarded, feedback, graded_by, graded_at
        FROM quiz_answers WHERE attempt_id = $1 ORDER BY question_id`
	var answers []models.QuizAnswer
	if err := r.db.SelectContext(ctx, &answers, query, attemptID); err != nil {
		return nil, fmt.Errorf("list quiz answers: %w", err)
	}
	return answers, nil
}

// UpdateAnswer rewrites one answer's grading fields.
func (r *QuizRepository) UpdateAnswer(ctx context.Context, answer *models.QuizAnswer) error {
	const query = `UPDATE quiz_answers SET correct = :correct, points_awarded = :points_awarded,
        feedback = :feedback, graded_by = :graded_by, graded_at = :graded_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("update quiz answer: %w", err)
	}
	return nil
}

// RecordCompletedAttempt folds a finished attempt into the user's
// progress row: one more completed attempt, best score kept, passed
// latched once true.
func (r *QuizRepository) RecordCompletedAttempt(ctx context.Context, progress *models.QuizProgress) error {
	const query = `INSERT INTO quiz_user_progress (user_id, quiz_id, completed_attempts, best_score, passed, last_attempt_at)
        VALUES (:user_id, :quiz_id, :completed_attempts, :best_score, :passed, :last_attempt_at)
        ON CONFLICT (user_id, quiz_id) DO UPDATE SET
        completed_attempts = quiz_user_progress.completed_attempts + 1,
        best_score = GREATEST(quiz_user_progress.best_score, EXCLUDED.best_score),
        passed = quiz_user_progress.passed OR EXCLUDED.passed,
        last_attempt_at = EXCLUDED.last_attempt_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("record completed attempt: %w", err)
	}
	return nil
}

// ApplyRegrade lifts a user's progress after manual grading without
// counting another attempt.
func (r *QuizRepository) ApplyRegrade(ctx context.Context, userID, quizID string, score int, passed bool) error {
	const query = `UPDATE quiz_user_progress SET
        best_score = GREATEST(best_score, $3),
        passed = passed OR $4
        WHERE user_id = $1 AND quiz_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, quizID, score, passed); err != nil {
		return fmt.Errorf("apply quiz regrade: %w", err)
	}
	return nil
}

// FindProgress returns the user's progress row for a quiz.
func (r *QuizRepository) FindProgress(ctx context.Context, userID, quizID string) (*models.QuizProgress, error) {
	const query = `SELECT user_id, quiz_id, completed_attempts, best_score, passed, last_attempt_at
        FROM quiz_user_progress WHERE user_id = $1 AND quiz_id = $2`
	var progress models.QuizProgress
	if err := r.db.GetContext(ctx, &progress, query, userID, quizID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// AggregateAttempts rolls up finished attempts for a quiz.
func (r *QuizRepository) AggregateAttempts(ctx context.Context, quizID string) (*models.AttemptAggregate, error) {
	const query = `SELECT COUNT(*) AS total,
        COALESCE(AVG(score), 0) AS average_score,
        COALESCE(100.0 * COUNT(*) FILTER (WHERE passed) / NULLIF(COUNT(*), 0), 0) AS pass_rate
        FROM quiz_attempts
        WHERE quiz_id = $1 AND status IN ('completed', 'graded')`
	var agg models.AttemptAggregate
	if err := r.db.GetContext(ctx, &agg, query, quizID); err != nil {
		return nil, fmt.Errorf("aggregate quiz attempts: %w", err)
	}
	return &agg, nil
}

// AggregateAnswers counts total and correct answers per question over
// finished attempts.
func (r *QuizRepository) AggregateAnswers(ctx context.Context, quizID string) ([]models.QuestionStat, error) {
	const query = `SELECT a.question_id,
        COUNT(*) AS total_answers,
        COUNT(*) FILTER (WHERE a.correct) AS correct_answers
        FROM quiz_answers a
        JOIN quiz_attempts t ON t.id = a.attempt_id
        WHERE t.quiz_id = $1 AND t.status IN ('completed', 'graded')
        GROUP BY a.question_id`
	var stats []models.QuestionStat
	if err := r.db.SelectContext(ctx, &stats, query, quizID); err != nil {
		return nil, fmt.Errorf("aggregate quiz answers: %w", err)
	}
	return stats, nil
}
