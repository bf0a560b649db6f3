package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

func choiceQuestion(id string, points int, correct ...string) models.QuestionWithChoices {
	q := models.QuestionWithChoices{
		Question: models.Question{ID: id, Type: models.QuestionMultipleChoice, Points: points},
	}
	correctSet := make(map[string]bool, len(correct))
	for _, c := range correct {
		correctSet[c] = true
	}
	for _, cid := range []string{"a", "b", "c"} {
		q.Choices = append(q.Choices, models.Choice{
			ID:         id + "-" + cid,
			QuestionID: id,
			Correct:    correctSet[cid],
		})
	}
	return q
}

func TestGradeExactChoiceSetRequired(t *testing.T) {
	questions := []models.QuestionWithChoices{choiceQuestion("q1", 10, "a", "b")}

	full := Grade(questions, []models.AnswerSubmission{
		{QuestionID: "q1", SelectedChoices: []string{"q1-b", "q1-a"}},
	}, 80)
	require.Len(t, full.Answers, 1)
	assert.True(t, full.Answers[0].Correct)
	assert.Equal(t, 100, full.Score)
	assert.True(t, full.Passed)

	partial := Grade(questions, []models.AnswerSubmission{
		{QuestionID: "q1", SelectedChoices: []string{"q1-a"}},
	}, 80)
	assert.False(t, partial.Answers[0].Correct)
	assert.Equal(t, 0, partial.Answers[0].PointsAwarded)
	assert.Equal(t, 0, partial.Score)
}

func TestGradeTrueFalse(t *testing.T) {
	q := models.QuestionWithChoices{
		Question: models.Question{ID: "q1", Type: models.QuestionTrueFalse, Points: 5},
		Choices: []models.Choice{
			{ID: "t", QuestionID: "q1", Text: "True", Correct: true},
			{ID: "f", QuestionID: "q1", Text: "False"},
		},
	}

	out := Grade([]models.QuestionWithChoices{q}, []models.AnswerSubmission{
		{QuestionID: "q1", SelectedChoices: []string{"t"}},
	}, 80)
	assert.True(t, out.Answers[0].Correct)
	assert.Equal(t, 100, out.Score)
}

func TestGradeLeavesEssayForManualGrading(t *testing.T) {
	questions := []models.QuestionWithChoices{
		choiceQuestion("q1", 10, "a"),
		{Question: models.Question{ID: "q2", Type: models.QuestionEssay, Points: 10}},
	}

	out := Grade(questions, []models.AnswerSubmission{
		{QuestionID: "q1", SelectedChoices: []string{"q1-a"}},
		{QuestionID: "q2", TextAnswer: "장문 답변"},
	}, 80)

	assert.True(t, out.PendingManual)
	assert.False(t, out.Answers[1].AutoGraded)
	assert.Equal(t, 0, out.Answers[1].PointsAwarded)
	// Essay points stay in the denominator until graded.
	assert.Equal(t, 50, out.Score)
	assert.False(t, out.Passed)
}

func TestGradeSkippedQuestionCountsAgainstScore(t *testing.T) {
	questions := []models.QuestionWithChoices{
		choiceQuestion("q1", 10, "a"),
		choiceQuestion("q2", 20, "b"),
	}

	out := Grade(questions, []models.AnswerSubmission{
		{QuestionID: "q1", SelectedChoices: []string{"q1-a"}},
	}, 30)
	assert.Equal(t, 10, out.EarnedPoints)
	assert.Equal(t, 30, out.MaxPoints)
	assert.Equal(t, 33, out.Score)
	assert.True(t, out.Passed)
}

func TestGradeIgnoresUnknownQuestions(t *testing.T) {
	questions := []models.QuestionWithChoices{choiceQuestion("q1", 10, "a")}

	out := Grade(questions, []models.AnswerSubmission{
		{QuestionID: "ghost", SelectedChoices: []string{"x"}},
	}, 80)
	assert.Empty(t, out.Answers)
	assert.Equal(t, 0, out.Score)
}

func TestScorePercentTruncates(t *testing.T) {
	assert.Equal(t, 66, ScorePercent(2, 3))
	assert.Equal(t, 0, ScorePercent(5, 0))
	assert.Equal(t, 100, ScorePercent(3, 3))
}
