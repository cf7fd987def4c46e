package event

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/amfn/engine/caldate"
)

func TestSkipMaskSurvivingCount(t *testing.T) {
	e := &Event{SkipMask: 0b000001000000} // skip index 6 (month 7, 0-indexed)
	assert.True(t, e.Skipped(6))
	assert.False(t, e.Skipped(0))
	assert.Equal(t, 11, e.SurvivingCount(12))
}

func TestZeroSkipMaskSkipsNothing(t *testing.T) {
	e := &Event{}
	for i := 0; i < 12; i++ {
		assert.False(t, e.Skipped(i))
	}
	assert.Equal(t, 12, e.SurvivingCount(12))
}

func TestSortByDateThenSortOrderThenOriginIndex(t *testing.T) {
	list := List{
		{Date: caldate.New(2020, 2, 1), SortOrder: 0, OriginIndex: 2},
		{Date: caldate.New(2020, 1, 1), SortOrder: 1, OriginIndex: 1},
		{Date: caldate.New(2020, 1, 1), SortOrder: 0, OriginIndex: 0},
	}
	list.Sort()

	assert.Equal(t, 0, list[0].OriginIndex)
	assert.Equal(t, 1, list[1].OriginIndex)
	assert.Equal(t, 2, list[2].OriginIndex)
}

func TestPrincipalFirstAndInterestChangeDetection(t *testing.T) {
	pf := &Event{Extension: &PrincipalChange{PrincipalFirst: true}}
	assert.True(t, pf.IsPrincipalFirst())
	assert.False(t, pf.IsInterestChange())

	ic := &Event{Extension: &InterestChange{}}
	assert.False(t, ic.IsPrincipalFirst())
	assert.True(t, ic.IsInterestChange())
}
