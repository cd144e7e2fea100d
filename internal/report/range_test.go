package report

import (
	"errors"
	"testing"
	"time"
)

func TestMonthRangeLengths(t *testing.T) {
	cases := []struct {
		year    int
		month   time.Month
		lastDay int
	}{
		{2024, time.February, 29}, // leap year
		{2023, time.February, 28},
		{2024, time.March, 31},
		{2024, time.April, 30},
		{2024, time.December, 31},
		{2100, time.February, 28}, // century, not a leap year
	}
	for i, tc := range cases {
		r := MonthRange(tc.year, tc.month)
		if r.Start.Day() != 1 || r.Start.Month() != tc.month {
			t.Fatalf("case %d bad start %v", i, r.Start)
		}
		if r.End.Day() != tc.lastDay {
			t.Fatalf("case %d expected last day %d, got %d", i, tc.lastDay, r.End.Day())
		}
		if r.End.Before(r.Start) {
			t.Fatalf("case %d end before start", i)
		}
	}
}

func TestYearRangeBounds(t *testing.T) {
	r := YearRange(2024)
	if r.Start.Month() != time.January || r.Start.Day() != 1 {
		t.Fatalf("bad start %v", r.Start)
	}
	if r.End.Month() != time.December || r.End.Day() != 31 {
		t.Fatalf("bad end %v", r.End)
	}
	if !r.Contains(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatal("last second of the year must be inside")
	}
	if r.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("next year must be outside")
	}
}

func TestDayRangeInclusive(t *testing.T) {
	d := time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC)
	r := DayRange(d)
	if !r.Contains(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("midnight must be inside")
	}
	if !r.Contains(time.Date(2024, 3, 15, 23, 59, 59, 999_000_000, time.UTC)) {
		t.Fatal("last millisecond must be inside")
	}
	if r.Contains(time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("next midnight must be outside")
	}
}

func TestCustomRange(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	r, err := CustomRange(start, end)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !r.Contains(end.Add(12 * time.Hour)) {
		t.Fatal("end day afternoon must be inside")
	}

	// Same day is a valid single-day range.
	if _, err := CustomRange(start, start); err != nil {
		t.Fatalf("same-day range should be valid, got %v", err)
	}

	_, err = CustomRange(end, start)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
