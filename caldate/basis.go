package caldate

import "fmt"

// Basis is the closed set of day-count conventions spec.md §4.1 allows on
// an interest-bearing event.
type Basis string

const (
	BasisPeriodic    Basis = "periodic"
	BasisActual      Basis = "actual"
	BasisActualActual Basis = "actual-actual"
	BasisActual365L  Basis = "actual-365l"
	BasisActual365F  Basis = "actual-365f"
	Basis30          Basis = "30"
	Basis30E         Basis = "30e"
	Basis30EP        Basis = "30ep"
)

// Valid reports whether b is one of the closed set of day-count bases.
func (b Basis) Valid() bool {
	switch b {
	case BasisPeriodic, BasisActual, BasisActualActual, BasisActual365L, BasisActual365F,
		Basis30, Basis30E, Basis30EP:
		return true
	default:
		return false
	}
}

// Fraction computes the day-count fraction of a year between d1 and d2
// (exclusive of d2) for basis b, given the nominal periods-per-year of the
// governing frequency and the event's configured days-in-year (spec.md
// §4.1's table: "actual" is the one basis whose denominator is the
// caller-supplied days-in-year rather than a fixed constant). periodic
// ignores actual elapsed days entirely and returns 1/periodsPerYear; every
// other basis derives a numerator of elapsed days over a basis-specific
// denominator. daysInYear of 0 falls back to 365, matching the actual-365F
// default.
func Fraction(b Basis, d1, d2 Date, periodsPerYear float64, daysInYear int) (float64, error) {
	if !b.Valid() {
		return 0, fmt.Errorf("caldate: unsupported day-count basis %q", b)
	}

	switch b {
	case BasisPeriodic:
		if periodsPerYear == 0 {
			return 0, fmt.Errorf("caldate: periodic basis requires nonzero periods-per-year")
		}
		return 1 / periodsPerYear, nil

	case BasisActual:
		denom := float64(daysInYear)
		if denom == 0 {
			denom = 365.0
		}
		return float64(DaysBetween(d1, d2)) / denom, nil

	case BasisActualActual:
		return actualActualFraction(d1, d2), nil

	case BasisActual365L:
		denom := 365.0
		if ContainsFeb29(d1, d2) {
			denom = 366.0
		}
		return float64(DaysBetween(d1, d2)) / denom, nil

	case BasisActual365F:
		return float64(DaysBetween(d1, d2)) / 365.0, nil

	case Basis30:
		return thirty360(d1, d2, false) / 360.0, nil

	case Basis30E:
		return thirty360E(d1, d2, false) / 360.0, nil

	case Basis30EP:
		return thirty360E(d1, d2, true) / 360.0, nil

	default:
		return 0, fmt.Errorf("caldate: unsupported day-count basis %q", b)
	}
}

// actualActualFraction apportions the span [d1, d2) across the one or two
// calendar years it straddles, weighting each year's contribution by that
// year's actual length (365 or 366 days).
func actualActualFraction(d1, d2 Date) float64 {
	if d1.Compare(d2) >= 0 {
		return -actualActualFraction(d2, d1)
	}

	y1, y2 := d1.Time.Year(), d2.Time.Year()
	if y1 == y2 {
		yearLen := 365.0
		if IsLeapYear(y1) {
			yearLen = 366.0
		}
		return float64(DaysBetween(d1, d2)) / yearLen
	}

	total := 0.0
	cursor := d1
	for y := y1; y <= y2; y++ {
		yearStart := New(y, 1, 1)
		yearEnd := New(y+1, 1, 1)
		spanStart := cursor
		spanEnd := yearEnd
		if spanEnd.After(d2) {
			spanEnd = d2
		}
		if spanStart.Before(yearStart) {
			spanStart = yearStart
		}
		yearLen := 365.0
		if IsLeapYear(y) {
			yearLen = 366.0
		}
		total += float64(DaysBetween(spanStart, spanEnd)) / yearLen
		cursor = spanEnd
	}
	return total
}

// thirty360 implements the classic (US/NASD) 30/360 day count: a d1 on
// the 31st is treated as the 30th, and a d2 on the 31st is treated as the
// 30th only when d1 (after that adjustment) is the 30th. eom is accepted
// for symmetry with the other 30/360 variants but unused by this
// convention.
func thirty360(d1, d2 Date, _ bool) float64 {
	y1, m1, day1 := d1.Time.Year(), int(d1.Time.Month()), d1.Time.Day()
	y2, m2, day2 := d2.Time.Year(), int(d2.Time.Month()), d2.Time.Day()

	if day1 == 31 {
		day1 = 30
	}
	if day2 == 31 && day1 == 30 {
		day2 = 30
	}

	return float64(360*(y2-y1) + 30*(m2-m1) + (day2 - day1))
}

// thirty360E implements the European 30E/360 convention: any day-of-month
// 31 on either date is simply clamped to 30, independent of the other
// date. When eurPlus is true (30E+/360 per spec.md's "30ep" basis), a d2
// falling on the last day of February is also treated as the 30th.
func thirty360E(d1, d2 Date, eurPlus bool) float64 {
	y1, m1, day1 := d1.Time.Year(), int(d1.Time.Month()), d1.Time.Day()
	y2, m2, day2 := d2.Time.Year(), int(d2.Time.Month()), d2.Time.Day()

	if day1 == 31 {
		day1 = 30
	}
	if day2 == 31 {
		day2 = 30
	}
	if eurPlus && d2.IsMonthEnd() && d2.Time.Month() == 2 {
		day2 = 30
	}

	return float64(360*(y2-y1) + 30*(m2-m1) + (day2 - day1))
}
