// Package format renders calculation results for display.
package format

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// integerEpsilon is how close a value must be to an integer to be shown as one.
const integerEpsilon = 1e-12

// Options control how a single value is rendered.
type Options struct {
	MaxDecimals int
	MinDecimals int
	AsPercent   bool
}

// DefaultOptions renders between 0 and 2 fraction digits.
func DefaultOptions() Options {
	return Options{MaxDecimals: 2}
}

// Formatter renders numbers with the grouping and decimal marks of a locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Formatter for the given BCP 47 locale. An unparseable locale
// falls back to English.
func New(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Format renders v according to opts.
func (f *Formatter) Format(v float64, opts Options) string {
	out := f.render(v, opts)
	if opts.AsPercent {
		out += "%"
	}
	return out
}

func (f *Formatter) render(v float64, opts Options) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	rounded := math.Round(v)
	if math.Abs(rounded-v) < integerEpsilon {
		return f.printer.Sprintf("%v", number.Decimal(rounded, number.MaxFractionDigits(0)))
	}

	maxDecimals := opts.MaxDecimals
	minDecimals := opts.MinDecimals
	if minDecimals > maxDecimals {
		minDecimals = maxDecimals
	}
	return f.printer.Sprintf("%v", number.Decimal(v,
		number.MinFractionDigits(minDecimals),
		number.MaxFractionDigits(maxDecimals),
	))
}

// Exact renders v with up to 12 significant digits and no trailing zeros.
// It is meant as an annotation next to the primary display.
func Exact(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	s := strconv.FormatFloat(v, 'g', 12, 64)
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.Abs(p) >= 1e21 {
		return s
	}
	return strconv.FormatFloat(p, 'f', -1, 64)
}

var compactUnits = []struct {
	threshold float64
	suffix    string
}{
	{1e12, "T"},
	{1e9, "B"},
}

// Compact shortens values of a billion or more ("1.23B"). Smaller values
// use Format with default options.
func (f *Formatter) Compact(v float64, asPercent bool) string {
	abs := math.Abs(v)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return f.Format(v, Options{AsPercent: asPercent})
	}

	for _, u := range compactUnits {
		if abs >= u.threshold {
			scaled := f.render(v/u.threshold, DefaultOptions())
			out := scaled + u.suffix
			if asPercent {
				out += "%"
			}
			return out
		}
	}

	opts := DefaultOptions()
	opts.AsPercent = asPercent
	return f.Format(v, opts)
}
