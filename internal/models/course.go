package models

import (
	"math"
	"time"

	"github.com/lib/pq"
)

// CourseLevel represents the difficulty of a course.
type CourseLevel string

// Supported course difficulty levels.
const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

// Course is a purchasable unit of instructional content. Prices are KRW.
type Course struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	InstructorID   string         `db:"instructor_id" json:"instructor_id"`
	InstructorName string         `db:"instructor_name" json:"instructor_name"`
	Price          int            `db:"price" json:"price"`
	OriginalPrice  *int           `db:"original_price" json:"original_price,omitempty"`
	Rating         float64        `db:"rating" json:"rating"`
	ReviewCount    int            `db:"review_count" json:"review_count"`
	StudentCount   int            `db:"student_count" json:"student_count"`
	Duration       string         `db:"duration" json:"duration"`
	Level          CourseLevel    `db:"level" json:"level"`
	Category       string         `db:"category" json:"category"`
	Description    string         `db:"description" json:"description"`
	Tags           pq.StringArray `db:"tags" json:"tags"`
	Bestseller     bool           `db:"bestseller" json:"bestseller"`
	IsNew          bool           `db:"is_new" json:"is_new"`
	Published      bool           `db:"published" json:"published"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// DiscountPercent derives the discount from the original price.
// Returns 0 when no original price is set.
func (c Course) DiscountPercent() int {
	if c.OriginalPrice == nil || *c.OriginalPrice <= 0 || *c.OriginalPrice <= c.Price {
		return 0
	}
	return int(math.Round(100 * float64(*c.OriginalPrice-c.Price) / float64(*c.OriginalPrice)))
}

// CategoryCount pairs a category name with the number of courses in it.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CatalogPage is the storefront listing: the filtered, ordered courses
// plus sidebar counts computed over the whole published set.
type CatalogPage struct {
	Courses        []Course       `json:"courses"`
	CategoryCounts map[string]int `json:"category_counts"`
	Total          int            `json:"total"`
}

// CreateCourseRequest is the payload for creating a course draft.
type CreateCourseRequest struct {
	Title         string      `json:"title" validate:"required"`
	Price         int         `json:"price" validate:"gte=0"`
	OriginalPrice *int        `json:"original_price" validate:"omitempty,gt=0"`
	Duration      string      `json:"duration"`
	Level         CourseLevel `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Category      string      `json:"category" validate:"required"`
	Description   string      `json:"description"`
	Tags          []string    `json:"tags"`
	Bestseller    bool        `json:"bestseller"`
	IsNew         bool        `json:"is_new"`
}

// UpdateCourseRequest is the payload for editing course fields.
type UpdateCourseRequest struct {
	Title         *string      `json:"title" validate:"omitempty,min=1"`
	Price         *int         `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice *int         `json:"original_price" validate:"omitempty,gt=0"`
	Duration      *string      `json:"duration"`
	Level         *CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Category      *string      `json:"category" validate:"omitempty,min=1"`
	Description   *string      `json:"description"`
	Tags          []string     `json:"tags"`
	Bestseller    *bool        `json:"bestseller"`
	IsNew         *bool        `json:"is_new"`
}
