// Package caldate implements the civil-date arithmetic, frequency
// stepping, and day-count bases AmFn's expander and interest engine share
// (spec.md §4.1, §4.2). It is grounded on the teacher's ast.Date — a thin
// time.Time wrapper with an ISO-8601 Capture parser — generalized here with
// month/week/day stepping and end-of-month carry.
package caldate

import (
	"fmt"
	"regexp"
	"time"
)

// Date is a civil date: year, month, day with no time-of-day or timezone
// component. All arithmetic normalizes through time.Time truncated to UTC
// midnight.
type Date struct {
	time.Time
}

var isoPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Parse parses an ISO-8601 "YYYY-MM-DD" date string, matching the format
// spec.md §6 requires for every date field.
func Parse(s string) (Date, error) {
	if !isoPattern.MatchString(s) {
		return Date{}, fmt.Errorf("caldate: invalid date %q, want YYYY-MM-DD", s)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("caldate: invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// New builds a Date from calendar components, matching the expression
// language's date(y, m, d) builtin (spec.md §4.3).
func New(year, month, day int) Date {
	return Date{time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsZero reports whether d is the uninitialized zero value.
func (d Date) IsZero() bool { return d.Time.IsZero() }

// String renders d as "YYYY-MM-DD".
func (d Date) String() string { return d.Time.Format("2006-01-02") }

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Time.After(other.Time) }

// Equal reports whether d and other refer to the same calendar day.
func (d Date) Equal(other Date) bool { return d.Time.Equal(other.Time) }

// Compare returns -1, 0, or 1 as d is before, equal to, or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Before(other):
		return -1
	case d.After(other):
		return 1
	default:
		return 0
	}
}

// IsMonthEnd reports whether d is the last calendar day of its month.
func (d Date) IsMonthEnd() bool {
	return d.Time.AddDate(0, 0, 1).Month() != d.Time.Month()
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// AddWeeks returns d shifted by n weeks.
func (d Date) AddWeeks(n int) Date {
	return d.AddDays(7 * n)
}

// AddMonths returns d shifted by n months. When eom is true and d is a
// month-end date, the result snaps to the end of the target month
// (spec.md §4.2's EOM carry); otherwise the day-of-month is preserved,
// clamped to the target month's last day.
func (d Date) AddMonths(n int, eom bool) Date {
	if eom && d.IsMonthEnd() {
		first := time.Date(d.Time.Year(), d.Time.Month(), 1, 0, 0, 0, 0, time.UTC)
		targetFirst := first.AddDate(0, n, 0)
		lastDay := targetFirst.AddDate(0, 1, -1)
		return Date{lastDay}
	}

	day := d.Time.Day()
	first := time.Date(d.Time.Year(), d.Time.Month(), 1, 0, 0, 0, 0, time.UTC)
	targetFirst := first.AddDate(0, n, 0)
	lastOfTarget := targetFirst.AddDate(0, 1, -1).Day()
	if day > lastOfTarget {
		day = lastOfTarget
	}
	return Date{time.Date(targetFirst.Year(), targetFirst.Month(), day, 0, 0, 0, 0, time.UTC)}
}

// DaysBetween returns the actual (ACT) number of calendar days from d to
// other; negative if other precedes d.
func DaysBetween(d, other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// ContainsFeb29 reports whether the half-open span [d1, d2) covers a
// February 29th, used by the actual-365L day-count basis.
func ContainsFeb29(d1, d2 Date) bool {
	for y := d1.Time.Year(); y <= d2.Time.Year(); y++ {
		if !IsLeapYear(y) {
			continue
		}
		feb29 := time.Date(y, time.February, 29, 0, 0, 0, 0, time.UTC)
		if !feb29.Before(d1.Time) && feb29.Before(d2.Time) {
			return true
		}
	}
	return false
}
