package models

import (
	"time"

	"github.com/lib/pq"
)

// QuestionType distinguishes auto-gradable question kinds from ones a
// grader has to score by hand.
type QuestionType string

// Supported question kinds.
const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionEssay          QuestionType = "essay"
)

// AutoGradable reports whether answers of this kind are scored without
// a human grader.
func (t QuestionType) AutoGradable() bool {
	return t == QuestionMultipleChoice || t == QuestionTrueFalse
}

// AttemptStatus is the lifecycle of a quiz attempt.
type AttemptStatus string

// Attempt lifecycle states.
const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptGraded     AttemptStatus = "graded"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// Quiz is an assessment attached to a course. TimeLimit is seconds,
// zero means unlimited; MaxAttempts zero means unlimited retries.
type Quiz struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	TimeLimit    int       `db:"time_limit" json:"time_limit"`
	MaxAttempts  int       `db:"max_attempts" json:"max_attempts"`
	PassingScore int       `db:"passing_score" json:"passing_score"`
	Published    bool      `db:"published" json:"published"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Question is one item on a quiz, worth Points toward the total.
type Question struct {
	ID          string       `db:"id" json:"id"`
	QuizID      string       `db:"quiz_id" json:"quiz_id"`
	Text        string       `db:"text" json:"text"`
	Type        QuestionType `db:"type" json:"type"`
	Points      int          `db:"points" json:"points"`
	Position    int          `db:"position" json:"position"`
	Explanation string       `db:"explanation" json:"explanation,omitempty"`
}

// Choice is a selectable option on a choice-based question.
type Choice struct {
	ID         string `db:"id" json:"id"`
	QuestionID string `db:"question_id" json:"question_id"`
	Text       string `db:"text" json:"text"`
	Correct    bool   `db:"correct" json:"correct,omitempty"`
	Position   int    `db:"position" json:"position"`
}

// QuestionWithChoices pairs a question with its ordered choices.
type QuestionWithChoices struct {
	Question
	Choices []Choice `json:"choices,omitempty"`
}

// QuizContent is the full quiz as graders and takers see it.
type QuizContent struct {
	Quiz
	Questions []QuestionWithChoices `json:"questions"`
}

// Sanitized strips answer keys and explanations for quiz takers.
func (q QuizContent) Sanitized() QuizContent {
	out := q
	out.Questions = make([]QuestionWithChoices, len(q.Questions))
	for i, question := range q.Questions {
		clean := question
		clean.Explanation = ""
		clean.Choices = make([]Choice, len(question.Choices))
		for j, choice := range question.Choices {
			choice.Correct = false
			clean.Choices[j] = choice
		}
		out.Questions[i] = clean
	}
	return out
}

// QuizAttempt is one user's run through a quiz. Score is a 0-100
// percentage of the points available.
type QuizAttempt struct {
	ID            string        `db:"id" json:"id"`
	QuizID        string        `db:"quiz_id" json:"quiz_id"`
	UserID        string        `db:"user_id" json:"user_id"`
	AttemptNumber int           `db:"attempt_number" json:"attempt_number"`
	StartedAt     time.Time     `db:"started_at" json:"started_at"`
	CompletedAt   *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	TimeSpent     int           `db:"time_spent" json:"time_spent"`
	Score         int           `db:"score" json:"score"`
	Passed        bool          `db:"passed" json:"passed"`
	Status        AttemptStatus `db:"status" json:"status"`
}

// QuizAnswer is the submitted answer to one question. Correct stays
// nil for manually-graded kinds until a grader scores them.
type QuizAnswer struct {
	ID              string         `db:"id" json:"id"`
	AttemptID       string         `db:"attempt_id" json:"attempt_id"`
	QuestionID      string         `db:"question_id" json:"question_id"`
	SelectedChoices pq.StringArray `db:"selected_choices" json:"selected_choices,omitempty"`
	TextAnswer      string         `db:"text_answer" json:"text_answer,omitempty"`
	Correct         *bool          `db:"correct" json:"correct,omitempty"`
	PointsAwarded   int            `db:"points_awarded" json:"points_awarded"`
	Feedback        string         `db:"feedback" json:"feedback,omitempty"`
	GradedBy        *string        `db:"graded_by" json:"graded_by,omitempty"`
	GradedAt        *time.Time     `db:"graded_at" json:"graded_at,omitempty"`
}

// AttemptDetail is an attempt with its answers attached.
type AttemptDetail struct {
	QuizAttempt
	Answers []QuizAnswer `json:"answers"`
}

// QuizProgress is a user's running record against one quiz.
type QuizProgress struct {
	UserID            string     `db:"user_id" json:"user_id"`
	QuizID            string     `db:"quiz_id" json:"quiz_id"`
	CompletedAttempts int        `db:"completed_attempts" json:"completed_attempts"`
	BestScore         int        `db:"best_score" json:"best_score"`
	Passed            bool       `db:"passed" json:"passed"`
	LastAttemptAt     *time.Time `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
}

// QuestionStat summarizes how takers did on one question.
type QuestionStat struct {
	QuestionID     string       `db:"question_id" json:"question_id"`
	Text           string       `json:"text"`
	Type           QuestionType `json:"type"`
	TotalAnswers   int          `db:"total_answers" json:"total_answers"`
	CorrectAnswers int          `db:"correct_answers" json:"correct_answers"`
}

// AttemptAggregate is the finished-attempt rollup for one quiz.
type AttemptAggregate struct {
	Total        int     `db:"total" json:"total"`
	AverageScore float64 `db:"average_score" json:"average_score"`
	PassRate     float64 `db:"pass_rate" json:"pass_rate"`
}

// QuizStatistics aggregates finished attempts for a quiz.
type QuizStatistics struct {
	TotalAttempts int            `json:"total_attempts"`
	AverageScore  float64        `json:"average_score"`
	PassRate      float64        `json:"pass_rate"`
	Questions     []QuestionStat `json:"questions"`
}

// CreateChoiceRequest is one option on a new choice question.
type CreateChoiceRequest struct {
	Text    string `json:"text" validate:"required"`
	Correct bool   `json:"correct"`
}

// CreateQuestionRequest is one item of a new quiz. Choices are
// required for choice-based kinds and ignored otherwise.
type CreateQuestionRequest struct {
	Text        string                `json:"text" validate:"required"`
	Type        QuestionType          `json:"type" validate:"required,oneof=multiple_choice true_false short_answer essay"`
	Points      int                   `json:"points" validate:"gte=1"`
	Explanation string                `json:"explanation"`
	Choices     []CreateChoiceRequest `json:"choices" validate:"dive"`
}

// CreateQuizRequest creates a quiz with its questions in one shot.
// A nil passing score defaults to 80.
type CreateQuizRequest struct {
	Title        string                  `json:"title" validate:"required,max=200"`
	Description  string                  `json:"description"`
	TimeLimit    int                     `json:"time_limit" validate:"gte=0"`
	MaxAttempts  int                     `json:"max_attempts" validate:"gte=0"`
	PassingScore *int                    `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	Questions    []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// UpdateQuizRequest edits quiz settings; nil fields stay untouched.
type UpdateQuizRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description"`
	TimeLimit    *int    `json:"time_limit" validate:"omitempty,gte=0"`
	MaxAttempts  *int    `json:"max_attempts" validate:"omitempty,gte=0"`
	PassingScore *int    `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	Published    *bool   `json:"published"`
}

// AnswerSubmission is one answer in a submitted attempt.
type AnswerSubmission struct {
	QuestionID      string   `json:"question_id" validate:"required"`
	SelectedChoices []string `json:"selected_choices"`
	TextAnswer      string   `json:"text_answer"`
}

// SubmitQuizRequest submits every answer of an attempt at once.
type SubmitQuizRequest struct {
	Answers []AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
}

// AnswerGrade is a grader's verdict on one answer.
type AnswerGrade struct {
	QuestionID    string `json:"question_id" validate:"required"`
	PointsAwarded int    `json:"points_awarded" validate:"gte=0"`
	Correct       bool   `json:"correct"`
	Feedback      string `json:"feedback"`
}

// GradeQuizRequest scores the manually-graded answers of an attempt.
type GradeQuizRequest struct {
	Answers []AnswerGrade `json:"answers" validate:"required,min=1,dive"`
}
