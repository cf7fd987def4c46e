package cashflow

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/event"
	"github.com/amfn/engine/money"
	"github.com/amfn/engine/prefs"
)

// TestSolveFindsPaymentThatZerosBalance builds a zero-interest loan of
// 1000 paid off in two installments of "@target", and solves for the
// installment amount that drives the final current-value marker to
// zero: @target should converge to 500.
func TestSolveFindsPaymentThatZerosBalance(t *testing.T) {
	cf := &Cashflow{
		Name: "solve for payment",
		Events: event.List{
			literalEvent(caldate.New(2020, 1, 1), d("1000"),
				&event.PrincipalChange{Type: event.PrincipalIncrease, PrincipalFirst: true}, 0, 0),
			&event.Event{
				Date:        caldate.New(2020, 1, 1),
				ValueExpr:   "@target",
				Frequency:   caldate.Freq1Month,
				Intervals:   1,
				Periods:     2,
				Extension:   &event.PrincipalChange{Type: event.PrincipalDecrease},
				OriginIndex: 1,
			},
			&event.Event{
				Date:        caldate.New(2020, 3, 1),
				SortOrder:   1,
				Frequency:   caldate.Freq1Month,
				Extension:   &event.CurrentValue{},
				OriginIndex: 2,
			},
		},
	}

	result, err := Solve(context.Background(), cf, prefs.Default(), Target{
		Field:         TargetValue,
		CurrentValue:  true,
		DesiredValue:  d("0"),
		X0:            d("0"),
		X1:            d("600"),
		DecimalDigits: 6,
	})
	assert.NoError(t, err)
	assert.True(t, result.X.Sub(d("500")).Abs().LessThan(d("0.01")))
}

// TestEvaluateMonthlyAmortizingLoanScenario covers spec.md §8's S1
// end-to-end scenario: 100000.00 principal, 360 monthly payments at 6%
// nominal annual actuarial interest on a 30/360 basis, bankers rounding
// to 2 decimal digits. Solve first for the payment that drives the
// final-balance current-value marker to zero (S4's method, since a
// hand-rounded literal payment would leave a small residual over 360
// periods rather than the exact amortizing payment), then re-evaluates
// with that payment substituted as a literal to check the scenario's
// documented final balance and total interest.
func TestEvaluateMonthlyAmortizingLoanScenario(t *testing.T) {
	cf := &Cashflow{
		Name: "30yr fixed",
		Events: event.List{
			literalEvent(caldate.New(2020, 1, 1), d("100000.00"),
				&event.PrincipalChange{Type: event.PrincipalIncrease, PrincipalFirst: true}, 0, 0),
			&event.Event{
				Date:      caldate.New(2020, 1, 1),
				Value:     d("0.06"),
				Frequency: caldate.Freq1Month,
				SortOrder: 1,
				Extension: &event.InterestChange{
					DayCountBasis:      caldate.Basis30,
					Method:             event.MethodActuarial,
					RoundBalance:       money.RoundBankers,
					RoundDecimalDigits: 2,
				},
				OriginIndex: 1,
			},
			&event.Event{
				Date:        caldate.New(2020, 1, 1),
				ValueExpr:   "@target",
				Frequency:   caldate.Freq1Month,
				Intervals:   1,
				Periods:     360,
				SortOrder:   0,
				Extension:   &event.PrincipalChange{Type: event.PrincipalDecrease},
				OriginIndex: 2,
			},
			&event.Event{
				Date:        caldate.New(2050, 1, 1),
				SortOrder:   1,
				Frequency:   caldate.Freq1Month,
				Extension:   &event.CurrentValue{},
				OriginIndex: 3,
			},
		},
	}

	solved, err := Solve(context.Background(), cf, prefs.Default(), Target{
		Field:         TargetValue,
		CurrentValue:  true,
		DesiredValue:  d("0"),
		X0:            d("500"),
		X1:            d("700"),
		DecimalDigits: 4,
	})
	assert.NoError(t, err)
	assert.True(t, solved.X.Sub(d("599.55")).Abs().LessThan(d("0.10")))

	payment := cf.Events[2]
	payment.ValueExpr = ""
	payment.Value = solved.X

	result, err := Evaluate(context.Background(), cf, prefs.Default())
	assert.NoError(t, err)
	assert.True(t, result.Balance.FinalBalance.Abs().LessThan(d("1")))
	assert.True(t, result.Balance.FinalDate.Equal(caldate.New(2050, 1, 1)))
	assert.True(t, result.Balance.InterestTotal.Sub(d("115838.19")).Abs().LessThan(d("20")))
}

// TestSolveFindsRateThatZerosBalance covers spec.md §4.9's rate-unknown
// solver target (S4's shape): a 1000 principal accrues one month of
// periodic-basis interest at "@target", then a fixed 1010 payment is
// applied. The periodic basis's fraction is 1/periods-per-year (1/12 for
// a monthly event), so with none-rounding the accrued interest is exact:
// balance zeros out only when the nominal annual rate is 0.12.
func TestSolveFindsRateThatZerosBalance(t *testing.T) {
	cf := &Cashflow{
		Name: "solve for rate",
		Events: event.List{
			literalEvent(caldate.New(2020, 1, 1), d("1000"),
				&event.PrincipalChange{Type: event.PrincipalIncrease, PrincipalFirst: true}, 0, 0),
			&event.Event{
				Date:      caldate.New(2020, 1, 1),
				ValueExpr: "@target",
				Frequency: caldate.Freq1Month,
				SortOrder: 1,
				Extension: &event.InterestChange{
					DayCountBasis:      caldate.BasisPeriodic,
					Method:             event.MethodActuarial,
					RoundBalance:       money.RoundNone,
					RoundDecimalDigits: 2,
				},
				OriginIndex: 1,
			},
			literalEvent(caldate.New(2020, 2, 1), d("1010"),
				&event.PrincipalChange{Type: event.PrincipalDecrease}, 0, 2),
			&event.Event{
				Date:        caldate.New(2020, 2, 1),
				SortOrder:   1,
				Frequency:   caldate.Freq1Month,
				Extension:   &event.CurrentValue{},
				OriginIndex: 3,
			},
		},
	}

	result, err := Solve(context.Background(), cf, prefs.Default(), Target{
		Field:         TargetRate,
		CurrentValue:  true,
		DesiredValue:  d("0"),
		X0:            d("0"),
		X1:            d("1"),
		DecimalDigits: 9,
	})
	assert.NoError(t, err)
	assert.True(t, result.X.Sub(d("0.12")).Abs().LessThan(d("1e-6")))
}

// TestSolveFindsPeriodsThatZeroBalance covers spec.md §4.9's periods-
// unknown solver target: a zero-interest 1200 loan paid down by 100 a
// month should zero out after 12 installments. The current-value marker
// sits far enough past any candidate period count that the balance it
// reads is always the post-final-installment balance.
func TestSolveFindsPeriodsThatZeroBalance(t *testing.T) {
	cf := &Cashflow{
		Name: "solve for periods",
		Events: event.List{
			literalEvent(caldate.New(2020, 1, 1), d("1200"),
				&event.PrincipalChange{Type: event.PrincipalIncrease, PrincipalFirst: true}, 0, 0),
			&event.Event{
				Date:        caldate.New(2020, 2, 1),
				Value:       d("100"),
				Frequency:   caldate.Freq1Month,
				Intervals:   1,
				PeriodsExpr: "@target",
				Extension:   &event.PrincipalChange{Type: event.PrincipalDecrease},
				OriginIndex: 1,
			},
			&event.Event{
				Date:        caldate.New(2030, 1, 1),
				SortOrder:   1,
				Frequency:   caldate.Freq1Month,
				Extension:   &event.CurrentValue{},
				OriginIndex: 2,
			},
		},
	}

	result, err := Solve(context.Background(), cf, prefs.Default(), Target{
		Field:         TargetPeriods,
		CurrentValue:  true,
		DesiredValue:  d("0"),
		X0:            d("5"),
		X1:            d("20"),
		Lower:         d("0"),
		Upper:         d("24"),
		LowerSet:      true,
		UpperSet:      true,
		DecimalDigits: 2,
	})
	assert.NoError(t, err)
	assert.True(t, result.X.Equal(d("12")))
}
