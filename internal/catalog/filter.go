// Package catalog implements the course discovery engine: a pure
// filter/sort projection from the full course collection and the user's
// current selection to the ordered list the storefront renders.
package catalog

import (
	"sort"
	"strings"

	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

// SortKey selects the ordering applied to the filtered course set.
type SortKey string

const (
	SortPopularity SortKey = "popularity"
	SortRating     SortKey = "rating"
	SortRecency    SortKey = "recency"
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
)

// PriceBucket narrows courses to a price range. Boundaries: the middle
// bucket is exclusive at 50000 and inclusive at 100000.
type PriceBucket string

const (
	PriceAll       PriceBucket = "all"
	PriceFree      PriceBucket = "free"
	PriceUnder50k  PriceBucket = "under50k"
	Price50kTo100k PriceBucket = "50k-100k"
	PriceOver100k  PriceBucket = "over100k"
)

// CategoryAll matches every category; LevelAll matches every level.
const (
	CategoryAll = "all"
	LevelAll    = "all"
)

// Selection is the combined search/category/level/price/sort state driving
// catalog display. Values are plain strings so a Selection can be built
// directly from query parameters; Validate rejects anything outside the
// enumerated sets before filtering runs.
type Selection struct {
	Search      string      `json:"search"`
	Category    string      `json:"category"`
	Level       string      `json:"level"`
	PriceBucket PriceBucket `json:"price_bucket"`
	SortKey     SortKey     `json:"sort"`
}

// DefaultSelection returns the initial storefront state: everything
// visible, ordered by popularity.
func DefaultSelection() Selection {
	return Selection{
		Search:      "",
		Category:    CategoryAll,
		Level:       LevelAll,
		PriceBucket: PriceAll,
		SortKey:     SortPopularity,
	}
}

// Validate fails fast on unrecognized enum values. An out-of-range sort
// key, price bucket, or level is an integration bug, not user input to be
// silently defaulted.
func (s Selection) Validate() error {
	switch s.SortKey {
	case SortPopularity, SortRating, SortRecency, SortPriceAsc, SortPriceDesc:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown sort key: "+string(s.SortKey))
	}
	switch s.PriceBucket {
	case PriceAll, PriceFree, PriceUnder50k, Price50kTo100k, PriceOver100k:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown price bucket: "+string(s.PriceBucket))
	}
	switch s.Level {
	case LevelAll, string(models.LevelBeginner), string(models.LevelIntermediate), string(models.LevelAdvanced):
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown level: "+s.Level)
	}
	return nil
}

// Apply returns the ordered subset of courses matching every active
// predicate of the selection. It is a pure projection: the input slice is
// never mutated and identical inputs yield identical output. An empty
// result is a valid outcome, not an error.
func Apply(courses []models.Course, sel Selection) ([]models.Course, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	filtered := make([]models.Course, 0, len(courses))
	for _, course := range courses {
		if matches(course, sel) {
			filtered = append(filtered, course)
		}
	}

	sortCourses(filtered, sel.SortKey)
	return filtered, nil
}

// CategoryCounts tallies courses per category over the unfiltered
// collection, plus a synthetic "all" entry equal to the total, so sidebar
// counts reflect totals rather than the current filter.
func CategoryCounts(courses []models.Course) map[string]int {
	counts := make(map[string]int, 8)
	counts[CategoryAll] = len(courses)
	for _, course := range courses {
		counts[course.Category]++
	}
	return counts
}

// Predicates are independent and commutative: evaluation order never
// affects the result.
func matches(course models.Course, sel Selection) bool {
	return matchesSearch(course, sel.Search) &&
		matchesCategory(course, sel.Category) &&
		matchesLevel(course, sel.Level) &&
		matchesPrice(course, sel.PriceBucket)
}

func matchesSearch(course models.Course, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(course.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(course.InstructorName), needle) {
		return true
	}
	for _, tag := range course.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func matchesCategory(course models.Course, category string) bool {
	return category == CategoryAll || course.Category == category
}

func matchesLevel(course models.Course, level string) bool {
	return level == LevelAll || string(course.Level) == level
}

func matchesPrice(course models.Course, bucket PriceBucket) bool {
	switch bucket {
	case PriceAll:
		return true
	case PriceFree:
		return course.Price == 0
	case PriceUnder50k:
		return course.Price <= 50000
	case Price50kTo100k:
		return course.Price > 50000 && course.Price <= 100000
	case PriceOver100k:
		return course.Price > 100000
	}
	return false
}

// sortCourses orders in place, stable with respect to input order on ties.
func sortCourses(courses []models.Course, key SortKey) {
	switch key {
	case SortPopularity:
		sort.SliceStable(courses, func(i, j int) bool {
			return courses[i].StudentCount > courses[j].StudentCount
		})
	case SortRating:
		sort.SliceStable(courses, func(i, j int) bool {
			return courses[i].Rating > courses[j].Rating
		})
	case SortRecency:
		sort.SliceStable(courses, func(i, j int) bool {
			return courses[i].UpdatedAt.After(courses[j].UpdatedAt)
		})
	case SortPriceAsc:
		sort.SliceStable(courses, func(i, j int) bool {
			return courses[i].Price < courses[j].Price
		})
	case SortPriceDesc:
		sort.SliceStable(courses, func(i, j int) bool {
			return courses[i].Price > courses[j].Price
		})
	}
}
