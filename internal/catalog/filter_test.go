package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

func intPtr(v int) *int { return &v }

func sampleCourses() []models.Course {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.Course{
		{ID: "c1", Title: "Go 입문", InstructorName: "김철수", Category: "프로그래밍", Level: models.LevelBeginner, Price: 45000, StudentCount: 1200, Rating: 4.5, Tags: []string{"Go", "Backend"}, UpdatedAt: base.AddDate(0, 3, 0)},
		{ID: "c2", Title: "React 마스터", InstructorName: "이영희", Category: "프로그래밍", Level: models.LevelIntermediate, Price: 65000, StudentCount: 3400, Rating: 4.8, Tags: []string{"React", "Frontend"}, UpdatedAt: base.AddDate(0, 5, 0)},
		{ID: "c3", Title: "디자인 기초", InstructorName: "박민수", Category: "디자인", Level: models.LevelBeginner, Price: 0, StudentCount: 900, Rating: 4.2, Tags: []string{"Figma"}, UpdatedAt: base.AddDate(0, 1, 0)},
		{ID: "c4", Title: "데이터 분석", InstructorName: "최지우", Category: "데이터", Level: models.LevelAdvanced, Price: 89000, StudentCount: 2100, Rating: 4.7, Tags: []string{"Python", "Pandas"}, UpdatedAt: base.AddDate(0, 4, 0)},
		{ID: "c5", Title: "알고리즘 특강", InstructorName: "김철수", Category: "프로그래밍", Level: models.LevelAdvanced, Price: 99000, StudentCount: 800, Rating: 4.9, Tags: []string{"Algorithm"}, UpdatedAt: base.AddDate(0, 2, 0)},
		{ID: "c6", Title: "마케팅 전략", InstructorName: "정수빈", Category: "마케팅", Level: models.LevelIntermediate, Price: 120000, StudentCount: 1500, Rating: 4.1, Tags: []string{"SEO"}, UpdatedAt: base.AddDate(0, 6, 0)},
		{ID: "c7", Title: "영상 편집", InstructorName: "한가람", Category: "디자인", Level: models.LevelBeginner, Price: 50000, StudentCount: 600, Rating: 3.9, Tags: []string{"Premiere"}, UpdatedAt: base},
		{ID: "c8", Title: "UX 리서치", InstructorName: "박민수", Category: "디자인", Level: models.LevelIntermediate, Price: 100000, StudentCount: 400, Rating: 4.4, Tags: []string{"UX"}, UpdatedAt: base.AddDate(0, 2, 15)},
	}
}

func TestApplyDefaultSelectionReturnsAll(t *testing.T) {
	courses := sampleCourses()
	result, err := Apply(courses, DefaultSelection())
	require.NoError(t, err)
	assert.Len(t, result, len(courses))
}

func TestApplyCategoryFilterOrderedByPopularity(t *testing.T) {
	sel := DefaultSelection()
	sel.Category = "프로그래밍"

	result, err := Apply(sampleCourses(), sel)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, "c2", result[0].ID)
	assert.Equal(t, "c1", result[1].ID)
	assert.Equal(t, "c5", result[2].ID)
}

func TestApplyPriceBuckets(t *testing.T) {
	courses := []models.Course{
		{ID: "a", Price: 45000},
		{ID: "b", Price: 65000},
		{ID: "c", Price: 89000},
		{ID: "d", Price: 99000},
		{ID: "e", Price: 120000},
	}

	sel := DefaultSelection()
	sel.PriceBucket = Price50kTo100k
	result, err := Apply(courses, sel)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, "b", result[0].ID)
	assert.Equal(t, "c", result[1].ID)
	assert.Equal(t, "d", result[2].ID)
}

func TestApplyPriceBucketBoundaries(t *testing.T) {
	courses := []models.Course{
		{ID: "free", Price: 0},
		{ID: "edge50k", Price: 50000},
		{ID: "edge100k", Price: 100000},
		{ID: "above", Price: 100001},
	}

	cases := []struct {
		bucket PriceBucket
		want   []string
	}{
		{PriceFree, []string{"free"}},
		{PriceUnder50k, []string{"free", "edge50k"}},
		{Price50kTo100k, []string{"edge100k"}},
		{PriceOver100k, []string{"above"}},
	}

	for _, tc := range cases {
		sel := DefaultSelection()
		sel.PriceBucket = tc.bucket
		result, err := Apply(courses, sel)
		require.NoError(t, err)
		ids := make([]string, 0, len(result))
		for _, c := range result {
			ids = append(ids, c.ID)
		}
		assert.ElementsMatch(t, tc.want, ids, "bucket %s", tc.bucket)
	}
}

func TestApplySearchMatchesTitleInstructorAndTags(t *testing.T) {
	courses := sampleCourses()

	sel := DefaultSelection()
	sel.Search = "react"
	result, err := Apply(courses, sel)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "c2", result[0].ID)

	sel.Search = "김철수"
	result, err = Apply(courses, sel)
	require.NoError(t, err)
	assert.Len(t, result, 2)

	sel.Search = "pandas"
	result, err = Apply(courses, sel)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "c4", result[0].ID)
}

func TestApplySoundnessAndCompleteness(t *testing.T) {
	courses := sampleCourses()
	sel := DefaultSelection()
	sel.Level = string(models.LevelBeginner)

	result, err := Apply(courses, sel)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, c := range result {
		assert.Equal(t, models.LevelBeginner, c.Level)
		seen[c.ID]++
	}
	for _, c := range courses {
		if c.Level == models.LevelBeginner {
			assert.Equal(t, 1, seen[c.ID], "course %s must appear exactly once", c.ID)
		}
	}
}

func TestApplyIsIdempotentAndPure(t *testing.T) {
	courses := sampleCourses()
	sel := DefaultSelection()
	sel.SortKey = SortRating

	first, err := Apply(courses, sel)
	require.NoError(t, err)
	second, err := Apply(courses, sel)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Input order must survive the sort pass untouched.
	assert.Equal(t, "c1", courses[0].ID)
	assert.Equal(t, "c8", courses[7].ID)
}

func TestApplySortStability(t *testing.T) {
	courses := []models.Course{
		{ID: "x", Price: 30000, StudentCount: 100},
		{ID: "y", Price: 30000, StudentCount: 100},
		{ID: "z", Price: 30000, StudentCount: 100},
	}

	for _, key := range []SortKey{SortPopularity, SortRating, SortRecency, SortPriceAsc, SortPriceDesc} {
		sel := DefaultSelection()
		sel.SortKey = key
		result, err := Apply(courses, sel)
		require.NoError(t, err)
		require.Len(t, result, 3)
		assert.Equal(t, "x", result[0].ID, "sort %s", key)
		assert.Equal(t, "y", result[1].ID, "sort %s", key)
		assert.Equal(t, "z", result[2].ID, "sort %s", key)
	}
}

func TestApplySortModes(t *testing.T) {
	courses := sampleCourses()

	sel := DefaultSelection()
	sel.SortKey = SortPriceAsc
	result, err := Apply(courses, sel)
	require.NoError(t, err)
	assert.Equal(t, "c3", result[0].ID)
	assert.Equal(t, "c6", result[len(result)-1].ID)

	sel.SortKey = SortPriceDesc
	result, err = Apply(courses, sel)
	require.NoError(t, err)
	assert.Equal(t, "c6", result[0].ID)

	sel.SortKey = SortRecency
	result, err = Apply(courses, sel)
	require.NoError(t, err)
	assert.Equal(t, "c6", result[0].ID)
	assert.Equal(t, "c7", result[len(result)-1].ID)

	sel.SortKey = SortRating
	result, err = Apply(courses, sel)
	require.NoError(t, err)
	assert.Equal(t, "c5", result[0].ID)
}

func TestApplyEmptyResultIsNotAnError(t *testing.T) {
	sel := DefaultSelection()
	sel.Search = "존재하지 않는 강의"
	result, err := Apply(sampleCourses(), sel)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NotNil(t, result)
}

func TestApplyRejectsUnknownEnumValues(t *testing.T) {
	courses := sampleCourses()

	sel := DefaultSelection()
	sel.SortKey = "trending"
	_, err := Apply(courses, sel)
	require.Error(t, err)

	sel = DefaultSelection()
	sel.PriceBucket = "cheap"
	_, err = Apply(courses, sel)
	require.Error(t, err)

	sel = DefaultSelection()
	sel.Level = "expert"
	_, err = Apply(courses, sel)
	require.Error(t, err)
}

func TestCategoryCounts(t *testing.T) {
	courses := sampleCourses()
	counts := CategoryCounts(courses)

	assert.Equal(t, len(courses), counts[CategoryAll])
	assert.Equal(t, 3, counts["프로그래밍"])
	assert.Equal(t, 3, counts["디자인"])
	assert.Equal(t, 1, counts["데이터"])
	assert.Equal(t, 1, counts["마케팅"])

	sum := 0
	for category, n := range counts {
		if category != CategoryAll {
			sum += n
		}
	}
	assert.Equal(t, len(courses), sum)
}

func TestDiscountPercentDerived(t *testing.T) {
	course := models.Course{Price: 65000, OriginalPrice: intPtr(130000)}
	assert.Equal(t, 50, course.DiscountPercent())

	course = models.Course{Price: 65000}
	assert.Equal(t, 0, course.DiscountPercent())

	course = models.Course{Price: 89000, OriginalPrice: intPtr(99000)}
	assert.Equal(t, 10, course.DiscountPercent())
}
