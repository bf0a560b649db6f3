// Package curriculum implements the lesson progression state machine: which
// lesson is current, which are completed or locked, and how aggregate
// progress is computed. All operations are pure; they return a new
// curriculum value and never mutate their input.
package curriculum

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

// SelectLesson marks the requested lesson as current. Selecting an unknown
// or locked lesson is a no-op: the input curriculum is returned unchanged
// and the second result is false. On success exactly one lesson is current;
// the previously current lesson falls back to completed or available
// depending on whether playback had finished it. Completed lessons may be
// re-selected (replay).
func SelectLesson(cur models.Curriculum, lessonID string) (models.Curriculum, bool) {
	target, ok := findLesson(cur, lessonID)
	if !ok || target.State == models.LessonLocked {
		return cur, false
	}

	out := clone(cur)
	for si := range out.Sections {
		for li := range out.Sections[si].Lessons {
			lesson := &out.Sections[si].Lessons[li]
			switch {
			case lesson.ID == lessonID:
				lesson.State = models.LessonCurrent
			case lesson.State == models.LessonCurrent:
				lesson.State = deselectedState(*lesson)
			}
		}
	}
	return out, true
}

// CompleteLesson records that playback finished the lesson at the given
// time. Unknown and locked lessons are ignored; completing an already
// completed lesson keeps the original timestamp.
func CompleteLesson(cur models.Curriculum, lessonID string, at time.Time) (models.Curriculum, bool) {
	target, ok := findLesson(cur, lessonID)
	if !ok || target.State == models.LessonLocked {
		return cur, false
	}

	out := clone(cur)
	for si := range out.Sections {
		for li := range out.Sections[si].Lessons {
			lesson := &out.Sections[si].Lessons[li]
			if lesson.ID != lessonID {
				continue
			}
			if lesson.CompletedAt == nil {
				ts := at
				lesson.CompletedAt = &ts
			}
			if lesson.State != models.LessonCurrent {
				lesson.State = models.LessonCompleted
			}
		}
	}
	return out, true
}

// Unlock transitions a locked lesson to available. The unlock decision
// itself (prerequisite, entitlement) belongs to the caller; the tracker
// only records the outcome. Unlocking a non-locked lesson is a no-op.
func Unlock(cur models.Curriculum, lessonID string) (models.Curriculum, bool) {
	target, ok := findLesson(cur, lessonID)
	if !ok || target.State != models.LessonLocked {
		return cur, false
	}

	out := clone(cur)
	for si := range out.Sections {
		for li := range out.Sections[si].Lessons {
			if out.Sections[si].Lessons[li].ID == lessonID {
				out.Sections[si].Lessons[li].State = models.LessonAvailable
			}
		}
	}
	return out, true
}

// Progress aggregates completion over every lesson in the curriculum.
// An empty curriculum yields zero percent, never a division fault.
func Progress(cur models.Curriculum) models.ProgressSummary {
	total := 0
	completed := 0
	for _, section := range cur.Sections {
		for _, lesson := range section.Lessons {
			total++
			if lesson.Completed() {
				completed++
			}
		}
	}

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(100 * float64(completed) / float64(total)))
	}
	return models.ProgressSummary{CompletedCount: completed, TotalCount: total, Percentage: percentage}
}

// CurrentLesson returns the id of the current lesson, if any.
func CurrentLesson(cur models.Curriculum) (string, bool) {
	for _, section := range cur.Sections {
		for _, lesson := range section.Lessons {
			if lesson.State == models.LessonCurrent {
				return lesson.ID, true
			}
		}
	}
	return "", false
}

// NewNote builds a note pinned to a playback position. Blank or
// whitespace-only content is rejected.
func NewNote(userID, lessonID string, seconds int, content string, now time.Time) (*models.Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "note content must not be blank")
	}
	if seconds < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "note position must not be negative")
	}
	return &models.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		LessonID:  lessonID,
		Seconds:   seconds,
		Timestamp: FormatTimestamp(seconds),
		Content:   content,
		CreatedAt: now,
	}, nil
}

// FormatTimestamp renders a playback position in seconds as m:ss,
// e.g. 125 -> "2:05".
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func findLesson(cur models.Curriculum, lessonID string) (models.Lesson, bool) {
	for _, section := range cur.Sections {
		for _, lesson := range section.Lessons {
			if lesson.ID == lessonID {
				return lesson, true
			}
		}
	}
	return models.Lesson{}, false
}

// deselectedState decides where a formerly current lesson lands: completed
// if playback ever finished it, otherwise back to available.
func deselectedState(lesson models.Lesson) models.LessonState {
	if lesson.CompletedAt != nil {
		return models.LessonCompleted
	}
	return models.LessonAvailable
}

func clone(cur models.Curriculum) models.Curriculum {
	out := models.Curriculum{CourseID: cur.CourseID, Sections: make([]models.Section, len(cur.Sections))}
	for i, section := range cur.Sections {
		copied := section
		copied.Lessons = make([]models.Lesson, len(section.Lessons))
		copy(copied.Lessons, section.Lessons)
		out.Sections[i] = copied
	}
	return out
}
