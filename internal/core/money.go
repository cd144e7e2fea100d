// Package core holds the domain model shared by the storage, service and
// report layers.
//
// This file contains parsing and formatting helpers for monetary amounts.
// Amounts are kept as integers in the smallest currency unit everywhere;
// conversion to a decimal representation happens only at the edges.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-supplied amount string to minor units.
//
// It accepts a plain integer ("15000") or a decimal with dot or comma
// separator ("12.34", "12,34"); a third decimal digit rounds up only past
// the midpoint, so "12.345" stays 1234 and "12.346" becomes 1235.
// Negative and zero amounts are rejected; the sign of an amount is carried
// by its transaction kind, never by the number itself.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Guard the *100 below against overflow.
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		frac = d1 * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] > '5' {
				frac++
			}
		}
	}
	minor := iv*100 + frac
	if minor <= 0 {
		return 0, ErrInvalidAmount
	}
	return minor, nil
}

// Display returns the amount as a float for presentation only.
// All computation must stay on Minor.
func (m Money) Display() float64 {
	return float64(m.Minor) / 100.0
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Minor: m.Minor + o.Minor}
}

// Sub returns m minus o; the result may be negative (net balances).
func (m Money) Sub(o Money) Money {
	return Money{Minor: m.Minor - o.Minor}
}
