// Package percent holds the percentage formulas and the calculation modes
// that wire them to named inputs.
package percent

import "math"

// PercentOf returns x percent of y.
func PercentOf(x, y float64) float64 {
	return (x / 100) * y
}

// IncreaseBy returns y increased by x percent.
func IncreaseBy(x, y float64) float64 {
	return y + (x/100)*y
}

// DecreaseBy returns y decreased by x percent.
func DecreaseBy(x, y float64) float64 {
	return y - (x/100)*y
}

// PercentDifference returns |x-y| relative to the mean of |x| and |y|.
// Two zeros have a difference of 0.
func PercentDifference(x, y float64) (float64, error) {
	if x == 0 && y == 0 {
		return 0, nil
	}
	denom := (math.Abs(x) + math.Abs(y)) / 2
	if denom == 0 {
		return 0, fail(ErrDivideByZero, "Percent difference is undefined when |A| + |B| equals zero.")
	}
	return math.Abs(x-y) / denom * 100, nil
}

// WhatPercent returns the share of x in y as a percentage.
func WhatPercent(x, y float64) (float64, error) {
	if y == 0 {
		return 0, fail(ErrDivideByZero, "Cannot divide by zero.")
	}
	return (x / y) * 100, nil
}

// PercentChange returns the relative change from oldV to newV.
func PercentChange(oldV, newV float64) (float64, error) {
	if oldV == 0 {
		return 0, fail(ErrZeroBase, "Percent change is undefined when the old value is zero.")
	}
	return (newV - oldV) / oldV * 100, nil
}
