// Package numparse turns user-entered numeric text into float64 values.
//
// Both "1,234.56" and "1.234,56" are accepted. A comma is only read as the
// decimal marker when a dot is also present and the comma comes after it, so
// a comma-only string such as "1,5" is read as 15.
package numparse

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Normalize parses raw and returns NaN when it is empty or unparseable.
func Normalize(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	var normalized string
	if lastComma != -1 && lastDot != -1 && lastComma > lastDot {
		withoutDots := strings.ReplaceAll(s, ".", "")
		i := strings.LastIndex(withoutDots, ",")
		normalized = withoutDots[:i] + "." + withoutDots[i+1:]
	} else {
		normalized = strings.ReplaceAll(s, ",", "")
	}

	if isSpecial(normalized) {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// isSpecial reports whether s spells a value such as "inf" or "NaN" that
// ParseFloat accepts but a user never types as a number.
func isSpecial(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return s != "" && unicode.IsLetter(rune(s[0]))
}

// Valid reports whether raw normalizes to a finite number.
func Valid(raw string) bool {
	v := Normalize(raw)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Plain renders v as a plain decimal string that Normalize reads back
// unchanged.
func Plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
