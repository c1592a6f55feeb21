package calculator

import (
	"math"

	"percently/internal/history"
	"percently/internal/percent"
	"percently/internal/session"
)

// CalcRequest is the JSON body for POST /calculator/{mode} and
// PUT /calculator/{mode}/inputs. Inputs are keyed by role ("x", "y", "a",
// "b", "old", "new") and hold the text exactly as typed.
type CalcRequest struct {
	Inputs map[string]string `json:"inputs"`
}

// ResultBody is the JSON form of a calculation result. Value is omitted
// when the calculation failed or produced a non-finite number.
type ResultBody struct {
	Mode        string            `json:"mode"`
	Inputs      map[string]string `json:"inputs"`
	OK          bool              `json:"ok"`
	Value       *float64          `json:"value,omitempty"`
	Display     string            `json:"display,omitempty"`
	Short       string            `json:"short,omitempty"`
	Exact       string            `json:"exact,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
	Error       string            `json:"error,omitempty"`
	ErrorKind   string            `json:"error_kind,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

func newResultBody(res percent.Result) ResultBody {
	body := ResultBody{
		Mode:        res.Mode.String(),
		Inputs:      res.Inputs,
		OK:          res.OK,
		Display:     res.Display,
		Short:       res.Short,
		Exact:       res.Exact,
		Explanation: res.Explanation,
		Error:       res.ErrorMessage,
		ErrorKind:   percent.Kind(res.Err),
		FieldErrors: res.FieldErrors,
	}
	if res.OK && !math.IsInf(res.Value, 0) && !math.IsNaN(res.Value) {
		v := res.Value
		body.Value = &v
	}
	return body
}

// CalcResponse is the JSON response for POST /calculator/{mode} and
// POST /history/{index}/load.
type CalcResponse struct {
	Result ResultBody `json:"result"`
	// Location is the query string to replace into the address bar.
	Location  string `json:"location"`
	Permalink string `json:"permalink,omitempty"`
	// Committed is the previous calculation, moved into history by this one.
	Committed *history.Entry `json:"committed,omitempty"`
}

// EditResponse is the JSON response for input edits.
type EditResponse struct {
	Location string `json:"location"`
}

// ModeBody describes one mode and its inputs.
type ModeBody struct {
	Mode  string         `json:"mode"`
	Title string         `json:"title"`
	Roles []percent.Role `json:"roles"`
}

// ModesResponse is the JSON response for GET /calculator/modes.
type ModesResponse struct {
	Modes []ModeBody `json:"modes"`
}

// StateResponse is the JSON response for GET /calculator/state.
type StateResponse struct {
	Mode     string           `json:"mode"`
	Form     session.Snapshot `json:"form"`
	Result   *ResultBody      `json:"result,omitempty"`
	Location string           `json:"location"`
}

// HistoryResponse is the JSON response for GET /history.
type HistoryResponse struct {
	Entries  []history.Entry `json:"entries"`
	Capacity int             `json:"capacity"`
}

// PermalinkResponse is the JSON response for GET /history/{index}/permalink.
type PermalinkResponse struct {
	URL string `json:"url"`
}
