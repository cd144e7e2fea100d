// Package report turns a flat transaction log into the summaries shown by
// the application: per-category and per-payment-method breakdowns, per-day
// groupings, income/expense/net rollups and monthly trend series.
//
// Every function in this package is pure: inputs are passed explicitly and
// nothing is cached or mutated, so a report can be recomputed at any time
// from the current snapshot of fetched data.
package report

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned by CustomRange when the end date precedes the
// start date. The caller decides how to surface it; the range is never
// silently corrected.
var ErrInvalidRange = errors.New("range end before start")

// Range is a closed interval of timestamps. Both bounds are inclusive.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the interval, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// endOfDay is the last representable instant of d's calendar day.
func endOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day+1, 0, 0, 0, 0, d.Location()).Add(-time.Nanosecond)
}

func startOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location())
}

// DayRange covers a single calendar day.
func DayRange(d time.Time) Range {
	return Range{Start: startOfDay(d), End: endOfDay(d)}
}

// MonthRange covers one calendar month. The end bound is derived as day 0
// of the following month, which handles variable month lengths and leap
// years without a lookup table.
func MonthRange(year int, month time.Month) Range {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: endOfDay(lastDay)}
}

// YearRange covers one calendar year.
func YearRange(year int) Range {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: endOfDay(end)}
}

// CustomRange covers an arbitrary span of whole days. It fails with
// ErrInvalidRange when end is an earlier day than start.
func CustomRange(start, end time.Time) (Range, error) {
	s := startOfDay(start)
	e := endOfDay(end)
	if e.Before(s) {
		return Range{}, ErrInvalidRange
	}
	return Range{Start: s, End: e}, nil
}
