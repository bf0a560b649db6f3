package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/models"
	"github.com/jeromwolf/LearnFlow/internal/quiz"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

type quizRepository interface {
	CreateQuiz(ctx context.Context, q *models.Quiz, questions []models.QuestionWithChoices) error
	ListByCourse(ctx context.Context, courseID string, publishedOnly bool) ([]models.Quiz, error)
	FindQuiz(ctx context.Context, id string) (*models.Quiz, error)
	LoadContent(ctx context.Context, quizID string) (*models.QuizContent, error)
	UpdateQuiz(ctx context.Context, q *models.Quiz) error
	DeleteQuiz(ctx context.Context, id string) error
	CountAttempts(ctx context.Context, quizID, userID string) (int, error)
	CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	FindAttempt(ctx context.Context, id string) (*models.QuizAttempt, error)
	UpdateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	ListAttemptsByUser(ctx context.Context, userID, quizID string, status models.AttemptStatus) ([]models.QuizAttempt, error)
	ReplaceAnswers(ctx context.Context, attemptID string, answers []models.QuizAnswer) error
	ListAnswers(ctx context.Context, attemptID string) ([]models.QuizAnswer, error)
	UpdateAnswer(ctx context.Context, answer *models.QuizAnswer) error
	RecordCompletedAttempt(ctx context.Context, progress *models.QuizProgress) error
	ApplyRegrade(ctx context.Context, userID, quizID string, score int, passed bool) error
	FindProgress(ctx context.Context, userID, quizID string) (*models.QuizProgress, error)
}

type quizStatsRepository interface {
	AggregateAttempts(ctx context.Context, quizID string) (*models.AttemptAggregate, error)
	AggregateAnswers(ctx context.Context, quizID string) ([]models.QuestionStat, error)
}

const defaultPassingScore = 80

// QuizService manages course assessments: instructors author quizzes
// on their courses, enrolled users attempt them, choice questions are
// auto-graded and essay answers wait for a grader.
type QuizService struct {
	repo       quizRepository
	stats      quizStatsRepository
	courseRepo communityCourseRepository
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewQuizService constructs a QuizService.
func NewQuizService(repo quizRepository, stats quizStatsRepository, courseRepo communityCourseRepository, validate *validator.Validate, logger *zap.Logger) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &QuizService{
		repo:       repo,
		stats:      stats,
		courseRepo: courseRepo,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create authors a quiz with its questions on a course the actor
// manages. Choice questions need at least two options and one correct
// answer; the passing score defaults to 80 when omitted.
func (s *QuizService) Create(ctx context.Context, actor *models.JWTClaims, courseID string, req models.CreateQuizRequest) (*models.QuizContent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	if _, err := s.managedCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}

	passing := defaultPassingScore
	if req.PassingScore != nil {
		passing = *req.PassingScore
	}

	questions := make([]models.QuestionWithChoices, 0, len(req.Questions))
	for i, qr := range req.Questions {
		question := models.QuestionWithChoices{
			Question: models.Question{
				Text:        qr.Text,
				Type:        qr.Type,
				Points:      qr.Points,
				Position:    i,
				Explanation: qr.Explanation,
			},
		}
		if qr.Type.AutoGradable() {
			if len(qr.Choices) < 2 {
				return nil, appErrors.Clone(appErrors.ErrValidation, "choice questions need at least two choices")
			}
			correct := 0
			for j, cr := range qr.Choices {
				if cr.Correct {
					correct++
				}
				question.Choices = append(question.Choices, models.Choice{Text: cr.Text, Correct: cr.Correct, Position: j})
			}
			if correct == 0 {
				return nil, appErrors.Clone(appErrors.ErrValidation, "choice questions need a correct answer")
			}
		}
		questions = append(questions, question)
	}

	q := &models.Quiz{
		CourseID:     courseID,
		Title:        req.Title,
		Description:  req.Description,
		TimeLimit:    req.TimeLimit,
		MaxAttempts:  req.MaxAttempts,
		PassingScore: passing,
		CreatedBy:    actor.UserID,
	}
	if err := s.repo.CreateQuiz(ctx, q, questions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}
	return &models.QuizContent{Quiz: *q, Questions: questions}, nil
}

// ListByCourse returns a course's quizzes. Course managers see drafts;
// everyone else sees only published quizzes.
func (s *QuizService) ListByCourse(ctx context.Context, actor *models.JWTClaims, courseID string) ([]models.Quiz, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	quizzes, err := s.repo.ListByCourse(ctx, courseID, !canManageCourse(actor, course))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}
	return quizzes, nil
}

// Get returns a quiz with its questions. Course managers get the full
// content; takers get a sanitized copy of a published quiz with the
// answer key stripped.
func (s *QuizService) Get(ctx context.Context, actor *models.JWTClaims, quizID string) (*models.QuizContent, error) {
	content, err := s.loadContent(ctx, quizID)
	if err != nil {
		return nil, err
	}

	course, err := s.courseRepo.FindByID(ctx, content.CourseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course != nil && canManageCourse(actor, course) {
		return content, nil
	}
	if !content.Published {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "quiz is not published")
	}
	sanitized := content.Sanitized()
	return &sanitized, nil
}

// Update edits quiz settings. Course manager only.
func (s *QuizService) Update(ctx context.Context, actor *models.JWTClaims, quizID string, req models.UpdateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	q, err := s.managedQuiz(ctx, actor, quizID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		q.Title = *req.Title
	}
	if req.Description != nil {
		q.Description = *req.Description
	}
	if req.TimeLimit != nil {
		q.TimeLimit = *req.TimeLimit
	}
	if req.MaxAttempts != nil {
		q.MaxAttempts = *req.MaxAttempts
	}
	if req.PassingScore != nil {
		q.PassingScore = *req.PassingScore
	}
	if req.Published != nil {
		q.Published = *req.Published
	}
	if err := s.repo.UpdateQuiz(ctx, q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update quiz")
	}
	return q, nil
}

// Delete removes a quiz and everything under it. Course manager only.
func (s *QuizService) Delete(ctx context.Context, actor *models.JWTClaims, quizID string) error {
	if _, err := s.managedQuiz(ctx, actor, quizID); err != nil {
		return err
	}
	if err := s.repo.DeleteQuiz(ctx, quizID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete quiz")
	}
	return nil
}

// StartAttempt opens a new in-progress attempt on a published quiz,
// refusing once the attempt limit is spent.
func (s *QuizService) StartAttempt(ctx context.Context, userID, quizID string) (*models.QuizAttempt, error) {
	q, err := s.findQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !q.Published {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "quiz is not published")
	}

	count, err := s.repo.CountAttempts(ctx, quizID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attempts")
	}
	if q.MaxAttempts > 0 && count >= q.MaxAttempts {
		return nil, appErrors.Clone(appErrors.ErrValidation, "maximum number of attempts reached")
	}

	attempt := &models.QuizAttempt{
		QuizID:        quizID,
		UserID:        userID,
		AttemptNumber: count + 1,
		StartedAt:     s.now(),
		Status:        models.AttemptInProgress,
	}
	if err := s.repo.CreateAttempt(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start attempt")
	}
	return attempt, nil
}

// SubmitAttempt stores the answers of an in-progress attempt,
// auto-grades the choice questions and folds the result into the
// user's progress. Essay and short-answer points stay at zero until a
// grader scores them.
func (s *QuizService) SubmitAttempt(ctx context.Context, userID, attemptID string, req models.SubmitQuizRequest) (*models.AttemptDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	attempt, err := s.findAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your attempt")
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attempt already submitted")
	}

	content, err := s.loadContent(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	outcome := quiz.Grade(content.Questions, req.Answers, content.PassingScore)

	resultByQuestion := make(map[string]quiz.AnswerResult, len(outcome.Answers))
	for _, r := range outcome.Answers {
		resultByQuestion[r.QuestionID] = r
	}
	var answers []models.QuizAnswer
	for _, sub := range req.Answers {
		result, ok := resultByQuestion[sub.QuestionID]
		if !ok {
			continue
		}
		answer := models.QuizAnswer{
			QuestionID:      sub.QuestionID,
			SelectedChoices: sub.SelectedChoices,
			TextAnswer:      sub.TextAnswer,
			PointsAwarded:   result.PointsAwarded,
		}
		if result.AutoGraded {
			correct := result.Correct
			answer.Correct = &correct
		}
		answers = append(answers, answer)
	}
	if err := s.repo.ReplaceAnswers(ctx, attemptID, answers); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save answers")
	}

	now := s.now()
	attempt.CompletedAt = &now
	attempt.TimeSpent = int(now.Sub(attempt.StartedAt).Seconds())
	attempt.Score = outcome.Score
	attempt.Passed = outcome.Passed
	attempt.Status = models.AttemptCompleted
	if err := s.repo.UpdateAttempt(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finish attempt")
	}

	progress := &models.QuizProgress{
		UserID:            userID,
		QuizID:            attempt.QuizID,
		CompletedAttempts: 1,
		BestScore:         attempt.Score,
		Passed:            attempt.Passed,
		LastAttemptAt:     &now,
	}
	if err := s.repo.RecordCompletedAttempt(ctx, progress); err != nil {
		s.logger.Warn("failed to record quiz progress", zap.String("quiz_id", attempt.QuizID), zap.Error(err))
	}

	return &models.AttemptDetail{QuizAttempt: *attempt, Answers: answers}, nil
}

// GetAttempt returns an attempt with its answers. Owner or admin.
func (s *QuizService) GetAttempt(ctx context.Context, actor *models.JWTClaims, attemptID string) (*models.AttemptDetail, error) {
	attempt, err := s.findAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if actor == nil || (actor.UserID != attempt.UserID && actor.Role != models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your attempt")
	}

	answers, err := s.repo.ListAnswers(ctx, attemptID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answers")
	}
	return &models.AttemptDetail{QuizAttempt: *attempt, Answers: answers}, nil
}

// ListMyAttempts returns the caller's attempts, optionally narrowed to
// one quiz or one status.
func (s *QuizService) ListMyAttempts(ctx context.Context, userID, quizID string, status models.AttemptStatus) ([]models.QuizAttempt, error) {
	attempts, err := s.repo.ListAttemptsByUser(ctx, userID, quizID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
	}
	return attempts, nil
}

// Progress returns the caller's running record on a quiz. A user who
// never finished an attempt gets the zero-value record, not an error.
func (s *QuizService) Progress(ctx context.Context, userID, quizID string) (*models.QuizProgress, error) {
	progress, err := s.repo.FindProgress(ctx, userID, quizID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.QuizProgress{UserID: userID, QuizID: quizID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz progress")
	}
	return progress, nil
}

// GradeAttempt applies a grader's scores to a finished attempt,
// recomputes its percentage over every question's points and lifts
// the user's progress.
func (s *QuizService) GradeAttempt(ctx context.Context, graderID, attemptID string, req models.GradeQuizRequest) (*models.AttemptDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading payload")
	}

	attempt, err := s.findAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptCompleted && attempt.Status != models.AttemptGraded {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attempt is not ready for grading")
	}

	content, err := s.loadContent(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	answers, err := s.repo.ListAnswers(ctx, attemptID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answers")
	}

	grades := make(map[string]models.AnswerGrade, len(req.Answers))
	for _, g := range req.Answers {
		grades[g.QuestionID] = g
	}

	maxPoints := 0
	for _, q := range content.Questions {
		maxPoints += q.Points
	}

	now := s.now()
	earned := 0
	for i := range answers {
		answer := &answers[i]
		if grade, ok := grades[answer.QuestionID]; ok {
			correct := grade.Correct
			answer.Correct = &correct
			answer.PointsAwarded = grade.PointsAwarded
			answer.Feedback = grade.Feedback
			answer.GradedBy = &graderID
			answer.GradedAt = &now
			if err := s.repo.UpdateAnswer(ctx, answer); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
			}
		}
		earned += answer.PointsAwarded
	}

	attempt.Score = quiz.ScorePercent(earned, maxPoints)
	attempt.Passed = attempt.Score >= content.PassingScore
	attempt.Status = models.AttemptGraded
	if err := s.repo.UpdateAttempt(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finish grading")
	}

	if err := s.repo.ApplyRegrade(ctx, attempt.UserID, attempt.QuizID, attempt.Score, attempt.Passed); err != nil {
		s.logger.Warn("failed to lift quiz progress after grading", zap.String("quiz_id", attempt.QuizID), zap.Error(err))
	}

	return &models.AttemptDetail{QuizAttempt: *attempt, Answers: answers}, nil
}

// Statistics rolls up finished attempts for a quiz the actor manages.
func (s *QuizService) Statistics(ctx context.Context, actor *models.JWTClaims, quizID string) (*models.QuizStatistics, error) {
	content, err := s.loadContent(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if _, err := s.managedCourse(ctx, actor, content.CourseID); err != nil {
		return nil, err
	}

	agg, err := s.stats.AggregateAttempts(ctx, quizID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attempts")
	}
	perQuestion, err := s.stats.AggregateAnswers(ctx, quizID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate answers")
	}

	counts := make(map[string]models.QuestionStat, len(perQuestion))
	for _, stat := range perQuestion {
		counts[stat.QuestionID] = stat
	}
	stats := &models.QuizStatistics{
		TotalAttempts: agg.Total,
		AverageScore:  agg.AverageScore,
		PassRate:      agg.PassRate,
	}
	for _, q := range content.Questions {
		stat := counts[q.ID]
		stat.QuestionID = q.ID
		stat.Text = q.Text
		stat.Type = q.Type
		stats.Questions = append(stats.Questions, stat)
	}
	return stats, nil
}

func (s *QuizService) findQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	q, err := s.repo.FindQuiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	return q, nil
}

func (s *QuizService) findAttempt(ctx context.Context, attemptID string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.FindAttempt(ctx, attemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	return attempt, nil
}

func (s *QuizService) loadContent(ctx context.Context, quizID string) (*models.QuizContent, error) {
	content, err := s.repo.LoadContent(ctx, quizID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	return content, nil
}

func (s *QuizService) managedQuiz(ctx context.Context, actor *models.JWTClaims, quizID string) (*models.Quiz, error) {
	q, err := s.findQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if _, err := s.managedCourse(ctx, actor, q.CourseID); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuizService) managedCourse(ctx context.Context, actor *models.JWTClaims, courseID string) (*models.Course, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !canManageCourse(actor, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the course instructor")
	}
	return course, nil
}
