package percent

import "fmt"

// Mode selects one of the supported calculations.
type Mode int

const (
	ModePercentOf Mode = iota + 1
	ModeIncreaseBy
	ModeDecreaseBy
	ModePercentDiff
	ModeWhatPercent
	ModePercentChange
)

// Modes lists every mode in display order.
var Modes = []Mode{
	ModePercentOf,
	ModeIncreaseBy,
	ModeDecreaseBy,
	ModePercentDiff,
	ModeWhatPercent,
	ModePercentChange,
}

// Role describes one input of a mode. Key doubles as the query parameter
// name in permalinks.
type Role struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
}

// String returns the mode identifier used in URLs and storage.
func (m Mode) String() string {
	switch m {
	case ModePercentOf:
		return "percent-of"
	case ModeIncreaseBy:
		return "increase-by"
	case ModeDecreaseBy:
		return "decrease-by"
	case ModePercentDiff:
		return "percent-diff"
	case ModeWhatPercent:
		return "what-percent"
	case ModePercentChange:
		return "percent-change"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Title is a short human label for the mode.
func (m Mode) Title() string {
	switch m {
	case ModePercentOf:
		return "X% of Y"
	case ModeIncreaseBy:
		return "Increase Y by X%"
	case ModeDecreaseBy:
		return "Decrease Y by X%"
	case ModePercentDiff:
		return "Percent difference"
	case ModeWhatPercent:
		return "X is what % of Y"
	case ModePercentChange:
		return "Percent change"
	default:
		return ""
	}
}

// Roles returns the ordered input schema of the mode.
func (m Mode) Roles() []Role {
	switch m {
	case ModePercentOf:
		return []Role{
			{Key: "x", Label: "X (percent)", Placeholder: "e.g. 15"},
			{Key: "y", Label: "Y (value)", Placeholder: "e.g. 200"},
		}
	case ModeIncreaseBy, ModeDecreaseBy:
		return []Role{
			{Key: "x", Label: "X (percent)", Placeholder: "e.g. 10"},
			{Key: "y", Label: "Y (original value)", Placeholder: "e.g. 250"},
		}
	case ModePercentDiff:
		return []Role{
			{Key: "a", Label: "A (value)", Placeholder: "e.g. 120"},
			{Key: "b", Label: "B (value)", Placeholder: "e.g. 100"},
		}
	case ModeWhatPercent:
		return []Role{
			{Key: "x", Label: "X (part)", Placeholder: "e.g. 25"},
			{Key: "y", Label: "Y (whole)", Placeholder: "e.g. 200"},
		}
	case ModePercentChange:
		return []Role{
			{Key: "old", Label: "Old value", Placeholder: "e.g. 100"},
			{Key: "new", Label: "New value", Placeholder: "e.g. 120"},
		}
	default:
		return nil
	}
}

// RoleKeys returns the role keys of the mode in order.
func (m Mode) RoleKeys() []string {
	roles := m.Roles()
	keys := make([]string, len(roles))
	for i, r := range roles {
		keys[i] = r.Key
	}
	return keys
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= ModePercentOf && m <= ModePercentChange
}

// ParseMode maps an identifier such as "percent-of" to its Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler so modes serialize as their
// identifiers, including as JSON map keys.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
