package models

import "time"

// LessonState is the tagged per-lesson state governing playback eligibility.
// Invalid flag combinations (e.g. current and locked at once) are
// unrepresentable because a lesson carries exactly one state.
type LessonState string

const (
	LessonLocked    LessonState = "LOCKED"
	LessonAvailable LessonState = "AVAILABLE"
	LessonCurrent   LessonState = "CURRENT"
	LessonCompleted LessonState = "COMPLETED"
)

// LessonRow is the persisted lesson record; user-facing state is derived.
type LessonRow struct {
	ID        string    `db:"id" json:"id"`
	SectionID string    `db:"section_id" json:"section_id"`
	Title     string    `db:"title" json:"title"`
	Duration  string    `db:"duration" json:"duration"`
	Position  int       `db:"position" json:"position"`
	Preview   bool      `db:"preview" json:"preview"`
	VideoURL  string    `db:"video_url" json:"video_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SectionRow is the persisted section record.
type SectionRow struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Title     string    `db:"title" json:"title"`
	Duration  string    `db:"duration" json:"duration"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateSectionRequest is the payload for adding a section to a course.
type CreateSectionRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Duration string `json:"duration" validate:"max=50"`
	Position int    `json:"position" validate:"gte=0"`
}

// CreateLessonRequest is the payload for adding a lesson to a section.
type CreateLessonRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Duration string `json:"duration" validate:"max=50"`
	Position int    `json:"position" validate:"gte=0"`
	Preview  bool   `json:"preview"`
	VideoURL string `json:"video_url" validate:"omitempty,url"`
}

// Lesson is the client-visible lesson with its derived state.
type Lesson struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Duration    string      `json:"duration"`
	Preview     bool        `json:"preview"`
	State       LessonState `json:"state"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Completed reports whether the lesson has ever been finished, regardless
// of whether it is currently being replayed.
func (l Lesson) Completed() bool {
	return l.State == LessonCompleted || l.CompletedAt != nil
}

// Section groups an ordered run of lessons.
type Section struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Duration string   `json:"duration"`
	Lessons  []Lesson `json:"lessons"`
}

// Curriculum is the ordered section/lesson tree for one course as seen by
// one user.
type Curriculum struct {
	CourseID string    `json:"course_id"`
	Sections []Section `json:"sections"`
}

// ProgressSummary aggregates completion over a curriculum.
type ProgressSummary struct {
	CompletedCount int `json:"completed_count"`
	TotalCount     int `json:"total_count"`
	Percentage     int `json:"percentage"`
}
