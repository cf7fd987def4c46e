package compress

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/amortize"
	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/event"
	"github.com/amfn/engine/expr"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCompressMergesConstantPeriodicDelta(t *testing.T) {
	events := event.List{
		&event.Event{
			Date:      caldate.New(2020, 1, 1),
			Value:     d("100"),
			Frequency: caldate.Freq1Month,
			Intervals: 1,
			Periods:   6,
			Extension: &event.PrincipalChange{Type: event.PrincipalDecrease},
		},
	}

	elements, err := amortize.Expand(events, expr.MapScope{})
	assert.NoError(t, err)
	assert.Equal(t, 6, len(elements))

	for i, el := range elements {
		el.Balance = d("1000").Sub(decimal.NewFromInt(int64(i + 1)).Mul(d("100")))
	}

	runs := Compress(elements)
	assert.Equal(t, 1, len(runs))
	assert.Equal(t, 6, runs[0].Periods)
	assert.True(t, d("-100").Equal(runs[0].PrincipalDelta))
	assert.Equal(t, caldate.New(2020, 2, 1).String(), runs[0].StartDate.String())
	assert.Equal(t, caldate.New(2020, 7, 1).String(), runs[0].EndDate.String())
}

func TestCompressBreaksOnSkipMaskGap(t *testing.T) {
	events := event.List{
		&event.Event{
			Date:      caldate.New(2020, 1, 1),
			Value:     d("100"),
			Frequency: caldate.Freq1Month,
			Periods:   4,
			SkipMask:  0b0100, // skip index 2
			Extension: &event.PrincipalChange{Type: event.PrincipalDecrease},
		},
	}

	elements, err := amortize.Expand(events, expr.MapScope{})
	assert.NoError(t, err)
	assert.Equal(t, 3, len(elements))

	runs := Compress(elements)
	assert.Equal(t, 2, len(runs))
	assert.Equal(t, 2, runs[0].Periods)
	assert.Equal(t, 1, runs[1].Periods)
}

func TestCompressBreaksOnDifferentOriginEvent(t *testing.T) {
	events := event.List{
		&event.Event{
			Date:        caldate.New(2020, 1, 1),
			Value:       d("100"),
			Frequency:   caldate.Freq1Month,
			Periods:     2,
			Extension:   &event.PrincipalChange{Type: event.PrincipalDecrease},
			OriginIndex: 0,
		},
		&event.Event{
			Date:        caldate.New(2020, 3, 1),
			Value:       d("100"),
			Frequency:   caldate.Freq1Month,
			Periods:     2,
			Extension:   &event.PrincipalChange{Type: event.PrincipalDecrease},
			OriginIndex: 1,
		},
	}

	elements, err := amortize.Expand(events, expr.MapScope{})
	assert.NoError(t, err)
	assert.Equal(t, 4, len(elements))

	runs := Compress(elements)
	assert.Equal(t, 2, len(runs))
}
