package curriculum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

func sampleCurriculum() models.Curriculum {
	return models.Curriculum{
		CourseID: "course-1",
		Sections: []models.Section{
			{
				ID:    "s1",
				Title: "시작하기",
				Lessons: []models.Lesson{
					{ID: "l1", Title: "오리엔테이션", State: models.LessonAvailable},
					{ID: "l2", Title: "환경 설정", State: models.LessonAvailable},
				},
			},
			{
				ID:    "s2",
				Title: "심화",
				Lessons: []models.Lesson{
					{ID: "l3", Title: "실전 프로젝트", State: models.LessonLocked},
					{ID: "l4", Title: "마무리", State: models.LessonLocked},
				},
			},
		},
	}
}

func countCurrent(cur models.Curriculum) int {
	n := 0
	for _, s := range cur.Sections {
		for _, l := range s.Lessons {
			if l.State == models.LessonCurrent {
				n++
			}
		}
	}
	return n
}

func lessonByID(t *testing.T, cur models.Curriculum, id string) models.Lesson {
	t.Helper()
	for _, s := range cur.Sections {
		for _, l := range s.Lessons {
			if l.ID == id {
				return l
			}
		}
	}
	t.Fatalf("lesson %s not found", id)
	return models.Lesson{}
}

func TestSelectLessonMarksExactlyOneCurrent(t *testing.T) {
	cur := sampleCurriculum()
	assert.Equal(t, 0, countCurrent(cur))

	next, ok := SelectLesson(cur, "l1")
	require.True(t, ok)
	assert.Equal(t, 1, countCurrent(next))
	assert.Equal(t, models.LessonCurrent, lessonByID(t, next, "l1").State)

	next, ok = SelectLesson(next, "l2")
	require.True(t, ok)
	assert.Equal(t, 1, countCurrent(next))
	assert.Equal(t, models.LessonCurrent, lessonByID(t, next, "l2").State)
	assert.Equal(t, models.LessonAvailable, lessonByID(t, next, "l1").State)
}

func TestSelectLockedLessonIsNoOp(t *testing.T) {
	cur, ok := SelectLesson(sampleCurriculum(), "l1")
	require.True(t, ok)

	next, ok := SelectLesson(cur, "l3")
	assert.False(t, ok)
	assert.Equal(t, cur, next)
	assert.Equal(t, models.LessonCurrent, lessonByID(t, next, "l1").State)
}

func TestSelectUnknownLessonIsNoOp(t *testing.T) {
	cur := sampleCurriculum()
	next, ok := SelectLesson(cur, "ghost")
	assert.False(t, ok)
	assert.Equal(t, cur, next)
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	cur := sampleCurriculum()
	_, ok := SelectLesson(cur, "l1")
	require.True(t, ok)
	assert.Equal(t, models.LessonAvailable, lessonByID(t, cur, "l1").State)
}

func TestCompletedLessonStaysCompletedAfterDeselect(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	cur, _ := SelectLesson(sampleCurriculum(), "l1")
	cur, ok := CompleteLesson(cur, "l1", now)
	require.True(t, ok)

	// l1 is still current while being replayed; moving on demotes it to
	// completed, not available.
	cur, ok = SelectLesson(cur, "l2")
	require.True(t, ok)
	l1 := lessonByID(t, cur, "l1")
	assert.Equal(t, models.LessonCompleted, l1.State)
	require.NotNil(t, l1.CompletedAt)
	assert.Equal(t, now, *l1.CompletedAt)
}

func TestCompletedLessonCanBeReplayed(t *testing.T) {
	now := time.Now().UTC()
	cur, _ := SelectLesson(sampleCurriculum(), "l1")
	cur, _ = CompleteLesson(cur, "l1", now)
	cur, _ = SelectLesson(cur, "l2")

	cur, ok := SelectLesson(cur, "l1")
	require.True(t, ok)
	assert.Equal(t, models.LessonCurrent, lessonByID(t, cur, "l1").State)
	assert.Equal(t, 1, countCurrent(cur))
	assert.True(t, lessonByID(t, cur, "l1").Completed())
}

func TestCompleteLockedLessonIsNoOp(t *testing.T) {
	cur := sampleCurriculum()
	next, ok := CompleteLesson(cur, "l3", time.Now().UTC())
	assert.False(t, ok)
	assert.Equal(t, cur, next)
}

func TestCompleteIsIdempotent(t *testing.T) {
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	cur, _ := CompleteLesson(sampleCurriculum(), "l1", first)
	cur, ok := CompleteLesson(cur, "l1", later)
	require.True(t, ok)
	require.NotNil(t, lessonByID(t, cur, "l1").CompletedAt)
	assert.Equal(t, first, *lessonByID(t, cur, "l1").CompletedAt)
	assert.Equal(t, 1, Progress(cur).CompletedCount)
}

func TestUnlockTransitionsLockedToAvailable(t *testing.T) {
	cur := sampleCurriculum()
	next, ok := Unlock(cur, "l3")
	require.True(t, ok)
	assert.Equal(t, models.LessonAvailable, lessonByID(t, next, "l3").State)

	// Unlocking an already available lesson changes nothing.
	again, ok := Unlock(next, "l3")
	assert.False(t, ok)
	assert.Equal(t, next, again)
}

func TestProgressPercentageRounding(t *testing.T) {
	cur := sampleCurriculum()
	assert.Equal(t, models.ProgressSummary{CompletedCount: 0, TotalCount: 4, Percentage: 0}, Progress(cur))

	now := time.Now().UTC()
	cur, _ = CompleteLesson(cur, "l1", now)
	assert.Equal(t, 25, Progress(cur).Percentage)

	cur, _ = Unlock(cur, "l3")
	cur, _ = CompleteLesson(cur, "l2", now)
	cur, _ = CompleteLesson(cur, "l3", now)
	assert.Equal(t, 75, Progress(cur).Percentage)
}

func TestProgressEmptyCurriculum(t *testing.T) {
	summary := Progress(models.Curriculum{CourseID: "empty"})
	assert.Equal(t, 0, summary.TotalCount)
	assert.Equal(t, 0, summary.Percentage)
}

func TestProgressCountsReplayedLessons(t *testing.T) {
	now := time.Now().UTC()
	cur, _ := CompleteLesson(sampleCurriculum(), "l1", now)
	cur, _ = SelectLesson(cur, "l1")

	summary := Progress(cur)
	assert.Equal(t, 1, summary.CompletedCount)
	assert.Equal(t, 25, summary.Percentage)
}

func TestCurrentLesson(t *testing.T) {
	cur := sampleCurriculum()
	_, ok := CurrentLesson(cur)
	assert.False(t, ok)

	cur, _ = SelectLesson(cur, "l2")
	id, ok := CurrentLesson(cur)
	require.True(t, ok)
	assert.Equal(t, "l2", id)
}

func TestNewNoteRejectsBlankContent(t *testing.T) {
	_, err := NewNote("u1", "l1", 10, "  ", time.Now().UTC())
	require.Error(t, err)

	_, err = NewNote("u1", "l1", 10, "", time.Now().UTC())
	require.Error(t, err)
}

func TestNewNoteFormatsTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	note, err := NewNote("u1", "l1", 125, "hello", now)
	require.NoError(t, err)
	assert.Equal(t, "2:05", note.Timestamp)
	assert.Equal(t, 125, note.Seconds)
	assert.Equal(t, "hello", note.Content)
	assert.Equal(t, now, note.CreatedAt)
	assert.NotEmpty(t, note.ID)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "0:00", FormatTimestamp(0))
	assert.Equal(t, "0:59", FormatTimestamp(59))
	assert.Equal(t, "1:00", FormatTimestamp(60))
	assert.Equal(t, "2:05", FormatTimestamp(125))
	assert.Equal(t, "61:01", FormatTimestamp(3661))
}
