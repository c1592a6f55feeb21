package percent

import "errors"

// Failure kinds. Calculations wrap one of these with a message for display;
// match them with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDivideByZero = errors.New("divide by zero")
	ErrZeroBase     = errors.New("zero base")
	ErrUnknownMode  = errors.New("unknown mode")
)

// Failure is a calculation failure with a message fit for display.
type Failure struct {
	Kind    error
	Message string
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Kind }

func fail(kind error, msg string) error {
	return &Failure{Kind: kind, Message: msg}
}

// Kind returns the short name of the failure kind wrapped by err, or an
// empty string when err is nil or not a calculation failure.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDivideByZero):
		return "divide_by_zero"
	case errors.Is(err, ErrZeroBase):
		return "zero_base"
	case errors.Is(err, ErrUnknownMode):
		return "unknown_mode"
	default:
		return "internal"
	}
}
