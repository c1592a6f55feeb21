package percent

import (
	"fmt"
	"math"
	"strings"

	"percently/internal/format"
	"percently/internal/numparse"
)

// Result is the outcome of one evaluation. It is never modified after
// Evaluate returns it.
type Result struct {
	Mode        Mode
	Inputs      map[string]string
	Value       float64
	Display     string
	Short       string
	Exact       string
	Explanation string
	OK          bool

	// Err wraps one of the package's failure kinds when OK is false.
	Err          error
	ErrorMessage string
	FieldErrors  map[string]string
}

// Engine evaluates modes against raw user input and formats the outcome.
type Engine struct {
	fmt *format.Formatter
}

// NewEngine returns an Engine that formats with f.
func NewEngine(f *format.Formatter) *Engine {
	return &Engine{fmt: f}
}

// Formatter returns the engine's formatter.
func (e *Engine) Formatter() *format.Formatter {
	return e.fmt
}

// DisplayOptions returns how the primary result of m is rendered.
func DisplayOptions(m Mode) format.Options {
	switch m {
	case ModePercentDiff, ModePercentChange:
		return format.Options{MaxDecimals: 4, AsPercent: true}
	case ModeWhatPercent:
		return format.Options{MaxDecimals: 2, AsPercent: true}
	default:
		return format.DefaultOptions()
	}
}

// Compute runs the formula of m on already normalized operands.
func Compute(m Mode, a, b float64) (float64, error) {
	switch m {
	case ModePercentOf:
		return PercentOf(a, b), nil
	case ModeIncreaseBy:
		return IncreaseBy(a, b), nil
	case ModeDecreaseBy:
		return DecreaseBy(a, b), nil
	case ModePercentDiff:
		return PercentDifference(a, b)
	case ModeWhatPercent:
		return WhatPercent(a, b)
	case ModePercentChange:
		return PercentChange(a, b)
	default:
		return 0, unknownMode()
	}
}

// Evaluate normalizes the inputs of m, computes the result and renders it.
// Failures are reported through Result.OK and Result.Err, never a panic.
func (e *Engine) Evaluate(m Mode, inputs map[string]string) Result {
	res := Result{Mode: m, Inputs: map[string]string{}}
	if !m.Valid() {
		return failed(res, unknownMode())
	}

	roles := m.Roles()
	values := make([]float64, len(roles))
	var invalid []string
	for i, role := range roles {
		raw := strings.TrimSpace(inputs[role.Key])
		res.Inputs[role.Key] = raw
		values[i] = numparse.Normalize(raw)
		if !numparse.Valid(raw) {
			if res.FieldErrors == nil {
				res.FieldErrors = map[string]string{}
			}
			res.FieldErrors[role.Key] = "Enter a valid number"
			invalid = append(invalid, role.Label)
		}
	}
	if len(invalid) > 0 {
		return failed(res, fail(ErrInvalidInput, invalidMessage(invalid)))
	}

	a, b := values[0], values[1]
	out, err := Compute(m, a, b)
	if err != nil {
		return failed(res, err)
	}

	opts := DisplayOptions(m)
	res.OK = true
	res.Value = out
	res.Display = e.fmt.Format(out, opts)
	res.Short = e.fmt.Compact(out, opts.AsPercent)
	res.Exact = format.Exact(out)
	res.Explanation = e.explain(m, a, b, out)
	return res
}

func (e *Engine) explain(m Mode, a, b, out float64) string {
	num := func(v float64) string { return e.fmt.Format(v, format.DefaultOptions()) }
	display := e.fmt.Format(out, DisplayOptions(m))

	switch m {
	case ModePercentOf:
		return fmt.Sprintf("%s%% of %s is %s", num(a), num(b), display)
	case ModeIncreaseBy:
		return fmt.Sprintf("%s increased by %s%% is %s", num(b), num(a), display)
	case ModeDecreaseBy:
		return fmt.Sprintf("%s decreased by %s%% is %s", num(b), num(a), display)
	case ModePercentDiff:
		if a == 0 && b == 0 {
			return "Both values are zero; percent difference is 0%."
		}
		return fmt.Sprintf("Percent difference between %s and %s is %s", num(a), num(b), display)
	case ModeWhatPercent:
		return fmt.Sprintf("%s is %s of %s", num(a), display, num(b))
	case ModePercentChange:
		return fmt.Sprintf("Change from %s to %s is %s", num(a), num(b), display)
	default:
		return ""
	}
}

func failed(res Result, err error) Result {
	res.OK = false
	res.Value = math.NaN()
	res.Err = err
	res.ErrorMessage = err.Error()
	return res
}

func unknownMode() error {
	return fail(ErrUnknownMode, "Unknown calculation selected.")
}

func invalidMessage(labels []string) string {
	if len(labels) == 1 {
		return fmt.Sprintf("Please enter a valid number for %s.", labels[0])
	}
	return fmt.Sprintf("Please enter valid numbers for %s and %s.",
		strings.Join(labels[:len(labels)-1], ", "), labels[len(labels)-1])
}
