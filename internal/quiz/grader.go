// Package quiz scores submitted quiz attempts. Choice-based questions
// are graded automatically; short-answer and essay questions are left
// for a human grader and do not count toward the automatic score until
// graded.
package quiz

import (
	"sort"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

// AnswerResult is the grading outcome for a single question.
type AnswerResult struct {
	QuestionID    string
	AutoGraded    bool
	Correct       bool
	PointsAwarded int
}

// Outcome is the grading result of a whole attempt. Score is the
// 0-100 percentage of MaxPoints earned; PendingManual is set when any
// answered question needs a human grader.
type Outcome struct {
	Answers       []AnswerResult
	EarnedPoints  int
	MaxPoints     int
	Score         int
	Passed        bool
	PendingManual bool
}

// Grade scores an attempt against the quiz's questions. Answers to
// unknown questions are ignored; unanswered questions still count
// toward MaxPoints so skipping never raises the percentage.
func Grade(questions []models.QuestionWithChoices, answers []models.AnswerSubmission, passingScore int) Outcome {
	byQuestion := make(map[string]models.QuestionWithChoices, len(questions))
	for _, q := range questions {
		byQuestion[q.ID] = q
	}

	out := Outcome{}
	for _, q := range questions {
		out.MaxPoints += q.Points
	}

	for _, answer := range answers {
		question, ok := byQuestion[answer.QuestionID]
		if !ok {
			continue
		}

		result := AnswerResult{QuestionID: answer.QuestionID}
		if question.Type.AutoGradable() {
			result.AutoGraded = true
			result.Correct = choicesMatch(question.Choices, answer.SelectedChoices)
			if result.Correct {
				result.PointsAwarded = question.Points
				out.EarnedPoints += question.Points
			}
		} else {
			out.PendingManual = true
		}
		out.Answers = append(out.Answers, result)
	}

	out.Score = ScorePercent(out.EarnedPoints, out.MaxPoints)
	out.Passed = out.Score >= passingScore
	return out
}

// ScorePercent converts earned points to the 0-100 integer scale.
// Truncates rather than rounds, so a pass is never gifted.
func ScorePercent(earned, max int) int {
	if max <= 0 {
		return 0
	}
	return earned * 100 / max
}

// choicesMatch reports whether the selection is exactly the set of
// correct choices. Partial credit is not awarded.
func choicesMatch(choices []models.Choice, selected []string) bool {
	var correct []string
	for _, c := range choices {
		if c.Correct {
			correct = append(correct, c.ID)
		}
	}
	if len(correct) == 0 || len(correct) != len(selected) {
		return false
	}

	picked := append([]string(nil), selected...)
	sort.Strings(correct)
	sort.Strings(picked)
	for i := range correct {
		if correct[i] != picked[i] {
			return false
		}
	}
	return true
}
