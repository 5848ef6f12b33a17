// Package core holds the splitbook domain model: obligations, transactions,
// rupee amounts and the validated input drafts that gate every mutation.
//
// This file contains money parsing, formatting and equal-split arithmetic.
// Amounts are held as int64 paise to keep arithmetic exact; the JSON wire
// format is a plain decimal rupee number.
package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in paise (1/100 rupee).
type Money int64

var ErrInvalidAmount = errors.New("invalid amount")

// FromRupees converts a decimal rupee value to paise with half-up rounding.
func FromRupees(r float64) Money {
	return Money(math.Round(r * 100))
}

// Rupees returns the rupee value as a float64 for display and wire encoding.
// Use paise for calculations to avoid floating-point precision issues.
func (m Money) Rupees() float64 {
	return float64(m) / 100.0
}

// MarshalJSON encodes the amount as a decimal rupee number.
func (m Money) MarshalJSON() ([]byte, error) {
	if m%100 == 0 {
		return strconv.AppendInt(nil, int64(m)/100, 10), nil
	}
	return []byte(strconv.FormatFloat(m.Rupees(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a decimal rupee number; null is treated as zero.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	*m = FromRupees(f)
	return nil
}

// ParseDecimalToPaise reads a user-typed amount such as "1200", "12.34" or
// "12,34" and returns it in paise. Either "." or "," serves as the decimal
// mark; a third decimal digit rounds half-up. Signed, zero and non-numeric
// input is rejected with ErrInvalidAmount.
func ParseDecimalToPaise(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, ErrInvalidAmount
	}

	rupees, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || rupees > (math.MaxInt64-99)/100 {
		return 0, ErrInvalidAmount
	}

	var paise int64
	for i := 0; i < 2; i++ {
		paise *= 10
		if i < len(frac) {
			paise += int64(frac[i] - '0')
		}
	}
	if len(frac) > 2 && frac[2] >= '5' {
		paise++
	}

	total := rupees*100 + paise
	if total <= 0 {
		return 0, ErrInvalidAmount
	}
	return Money(total), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// SplitEqually divides a total across n shares with half-up rounding per
// share. Remainder paise are not redistributed; each share is an independent
// obligation thereafter.
func SplitEqually(total Money, n int) Money {
	if n <= 0 {
		return 0
	}
	return Money((int64(total) + int64(n)/2) / int64(n))
}

// Format renders the amount in Indian notation rounded to whole rupees,
// e.g. ₹1,23,456 or -₹500.
func (m Money) Format() string {
	r := int64(math.Round(m.Rupees()))
	neg := r < 0
	if neg {
		r = -r
	}
	s := strconv.FormatInt(r, 10)
	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		s = strings.Join(append(groups, tail), ",")
	}
	if neg {
		return "-₹" + s
	}
	return "₹" + s
}
