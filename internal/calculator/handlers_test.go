package calculator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"percently/internal/app"
	"percently/internal/format"
	"percently/internal/handlers"
	"percently/internal/percent"
	"percently/internal/storage"
	"percently/internal/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := app.NewService(percent.NewEngine(format.New("en")), storage.NewMemory(0), storage.NewMemory(0), app.Options{
		HistoryCapacity: 8,
		PermalinkBase:   "https://percently.example/",
	})

	r := chi.NewRouter()
	r.Use(handlers.ClientIDMiddleware)
	RegisterRoutes(r, NewHandler(svc))
	return r
}

func calculate(t *testing.T, h http.Handler, client, mode string, inputs map[string]string) CalcResponse {
	t.Helper()
	req := testutil.AsClient(testutil.NewJSONRequest(t, http.MethodPost, "/calculator/"+mode, CalcRequest{Inputs: inputs}), client)
	w := testutil.ExecuteRequest(req, h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp CalcResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	return resp
}

func listHistory(t *testing.T, h http.Handler, client string) HistoryResponse {
	t.Helper()
	req := testutil.AsClient(httptest.NewRequest(http.MethodGet, "/history", nil), client)
	w := testutil.ExecuteRequest(req, h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp HistoryResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	return resp
}

func TestModesListsEveryMode(t *testing.T) {
	h := newTestRouter(t)

	w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/calculator/modes", nil), h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp ModesResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)

	if len(resp.Modes) != len(percent.Modes) {
		t.Fatalf("expected %d modes, got %d", len(percent.Modes), len(resp.Modes))
	}
	last := resp.Modes[len(resp.Modes)-1]
	if last.Mode != "percent-change" || len(last.Roles) != 2 || last.Roles[0].Key != "old" {
		t.Fatalf("unexpected percent-change description: %+v", last)
	}
}

func TestCalculateSuccess(t *testing.T) {
	h := newTestRouter(t)
	client := uuid.NewString()

	resp := calculate(t, h, client, "percent-of", map[string]string{"x": "15", "y": "200"})

	if !resp.Result.OK {
		t.Fatalf("expected ok result, got %+v", resp.Result)
	}
	if resp.Result.Value == nil || *resp.Result.Value != 30 {
		t.Fatalf("expected value 30, got %v", resp.Result.Value)
	}
	if resp.Result.Display != "30" {
		t.Fatalf("expected display %q, got %q", "30", resp.Result.Display)
	}
	if resp.Result.Explanation != "15% of 200 is 30" {
		t.Fatalf("unexpected explanation %q", resp.Result.Explanation)
	}
	if resp.Location != "?mode=percent-of&x=15&y=200" {
		t.Fatalf("unexpected location %q", resp.Location)
	}
	if !strings.HasPrefix(resp.Permalink, "https://percently.example/?") || !strings.Contains(resp.Permalink, "auto=1") {
		t.Fatalf("unexpected permalink %q", resp.Permalink)
	}
	if resp.Committed != nil {
		t.Fatalf("first calculation must not commit anything, got %+v", resp.Committed)
	}
}

func TestCalculateFailuresAreOKFalse(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		inputs   map[string]string
		kind     string
		message  string
		fieldErr string
	}{
		{
			name:    "divide by zero",
			mode:    "what-percent",
			inputs:  map[string]string{"x": "5", "y": "0"},
			kind:    "divide_by_zero",
			message: "Cannot divide by zero.",
		},
		{
			name:    "zero base",
			mode:    "percent-change",
			inputs:  map[string]string{"old": "0", "new": "5"},
			kind:    "zero_base",
			message: "Percent change is undefined when the old value is zero.",
		},
		{
			name:     "invalid input",
			mode:     "percent-of",
			inputs:   map[string]string{"x": "abc", "y": "200"},
			kind:     "invalid_input",
			message:  "Please enter a valid number for X (percent).",
			fieldErr: "x",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(t)
			resp := calculate(t, h, uuid.NewString(), tc.mode, tc.inputs)

			if resp.Result.OK {
				t.Fatal("expected failed result")
			}
			if resp.Result.Value != nil {
				t.Fatalf("failed result must not carry a value, got %v", *resp.Result.Value)
			}
			if resp.Result.ErrorKind != tc.kind {
				t.Fatalf("expected kind %q, got %q", tc.kind, resp.Result.ErrorKind)
			}
			if resp.Result.Error != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, resp.Result.Error)
			}
			if tc.fieldErr != "" {
				if _, ok := resp.Result.FieldErrors[tc.fieldErr]; !ok {
					t.Fatalf("expected field error for %q, got %v", tc.fieldErr, resp.Result.FieldErrors)
				}
			}
		})
	}
}

func TestCalculateRejectsUnknownModeAndBadBody(t *testing.T) {
	h := newTestRouter(t)

	w := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodPost, "/calculator/square-root", CalcRequest{}), h)
	testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)
	var body map[string]string
	testutil.DecodeJSONBody(t, w.Body, &body)
	if body["error"] != "Unknown calculation selected." {
		t.Fatalf("unexpected error body %v", body)
	}

	req := httptest.NewRequest(http.MethodPost, "/calculator/percent-of", strings.NewReader("{"))
	w = testutil.ExecuteRequest(req, h)
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
}

func TestHistoryIsAppendedOneCalculationLate(t *testing.T) {
	h := newTestRouter(t)
	client := uuid.NewString()

	calculate(t, h, client, "percent-of", map[string]string{"x": "15", "y": "200"})
	if got := listHistory(t, h, client); len(got.Entries) != 0 || got.Capacity != 8 {
		t.Fatalf("expected empty history of capacity 8, got %+v", got)
	}

	resp := calculate(t, h, client, "increase-by", map[string]string{"x": "10", "y": "200"})
	if resp.Committed == nil || resp.Committed.Mode != percent.ModePercentOf {
		t.Fatalf("expected percent-of to be committed, got %+v", resp.Committed)
	}

	got := listHistory(t, h, client)
	if len(got.Entries) != 1 || got.Entries[0].Display != "30" {
		t.Fatalf("unexpected history %+v", got.Entries)
	}

	if other := listHistory(t, h, uuid.NewString()); len(other.Entries) != 0 {
		t.Fatalf("history leaked to another client: %+v", other.Entries)
	}
}

func TestLoadEntryDoesNotAppend(t *testing.T) {
	h := newTestRouter(t)
	client := uuid.NewString()

	calculate(t, h, client, "percent-of", map[string]string{"x": "15", "y": "200"})
	calculate(t, h, client, "what-percent", map[string]string{"x": "25", "y": "200"})

	req := testutil.AsClient(httptest.NewRequest(http.MethodPost, "/history/0/load", nil), client)
	w := testutil.ExecuteRequest(req, h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp CalcResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.Result.Display != "30" || resp.Location != "?mode=percent-of&x=15&y=200" {
		t.Fatalf("unexpected load response %+v", resp)
	}

	if got := listHistory(t, h, client); len(got.Entries) != 1 {
		t.Fatalf("loading must not append, got %d entries", len(got.Entries))
	}
}

func TestHistoryIndexErrors(t *testing.T) {
	h := newTestRouter(t)
	client := uuid.NewString()

	tests := []struct {
		method string
		target string
		want   int
	}{
		{method: http.MethodPost, target: "/history/abc/load", want: http.StatusBadRequest},
		{method: http.MethodPost, target: "/history/-1/load", want: http.StatusBadRequest},
		{method: http.MethodPost, target: "/history/0/load", want: http.StatusNotFound},
		{method: http.MethodGet, target: "/history/3/permalink", want: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			req := testutil.AsClient(httptest.NewRequest(tc.method, tc.target, nil), client)
			w := testutil.ExecuteRequest(req, h)
			testutil.CheckResponseCode(t, tc.want, w.Code)
		})
	}
}

func TestEntryPermalinkOpensWithAutoCalculation(t *testing.T) {
	h := newTestRouter(t)
	client := uuid.NewString()

	calculate(t, h, client, "percent-change", map[string]string{"old": "200", "new": "150"})
	calculate(t, h, client, "percent-of", map[string]string{"x": "1", "y": "1"})

	req := testutil.AsClient(httptest.NewRequest(http.MethodGet, "/history/0/permalink", nil), client)
	w := testutil.ExecuteRequest(req, h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var link PermalinkResponse
	testutil.DecodeJSONBody(t, w.Body, &link)

	// Open the link as a fresh client.
	_, query, _ := strings.Cut(link.URL, "?")
	fresh := uuid.NewString()
	req = testutil.AsClient(httptest.NewRequest(http.MethodGet, "/calculator/state?"+query, nil), fresh)
	w = testutil.ExecuteRequest(req, h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var state StateResponse
	testutil.DecodeJSONBody(t, w.Body, &state)
	if state.Mode != "percent-change" {
		t.Fatalf("expected percent-change, got %q", state.Mode)
	}
	if state.Result == nil || state.Result.Display != "-25%" {
		t.Fatalf("expected auto result -25%%, got %+v", state.Result)
	}
	if got := state.Form[percent.ModePercentChange]["old"]; got != "200" {
		t.Fatalf("expected old=200 in form, got %q", got)
	}
	if got := listHistory(t, h, fresh); len(got.Entries) != 0 {
		t.Fatalf("opening a link must not touch history, got %+v", got.Entries)
	}
}

func TestEditInputsIsRestoredByState(t *testing.T) {
	h := newTestRouter(t)
	client := uuid.NewString()

	req := testutil.AsClient(testutil.NewJSONRequest(t, http.MethodPut, "/calculator/percent-diff/inputs",
		CalcRequest{Inputs: map[string]string{"a": "1,200.5"}}), client)
	w := testutil.ExecuteRequest(req, h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var edit EditResponse
	testutil.DecodeJSONBody(t, w.Body, &edit)
	if edit.Location != "?a=1%2C200.5&mode=percent-diff" {
		t.Fatalf("unexpected location %q", edit.Location)
	}

	req = testutil.AsClient(httptest.NewRequest(http.MethodGet, "/calculator/state", nil), client)
	w = testutil.ExecuteRequest(req, h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var state StateResponse
	testutil.DecodeJSONBody(t, w.Body, &state)
	if state.Mode != "percent-diff" || state.Result != nil {
		t.Fatalf("unexpected state %+v", state)
	}
	if got := state.Form[percent.ModePercentDiff]["a"]; got != "1,200.5" {
		t.Fatalf("expected literal input to survive, got %q", got)
	}
}

func TestClearHistory(t *testing.T) {
	h := newTestRouter(t)
	client := uuid.NewString()

	calculate(t, h, client, "percent-of", map[string]string{"x": "15", "y": "200"})
	calculate(t, h, client, "percent-of", map[string]string{"x": "20", "y": "200"})

	req := testutil.AsClient(httptest.NewRequest(http.MethodDelete, "/history", nil), client)
	w := testutil.ExecuteRequest(req, h)
	testutil.CheckResponseCode(t, http.StatusNoContent, w.Code)

	if got := listHistory(t, h, client); len(got.Entries) != 0 {
		t.Fatalf("expected empty history, got %+v", got.Entries)
	}
}

func TestClientCookieIsMintedOnce(t *testing.T) {
	h := newTestRouter(t)

	w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/calculator/state", nil), h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != handlers.ClientCookie {
		t.Fatalf("expected client cookie, got %v", cookies)
	}
	if w.Header().Get("X-Client-ID") != cookies[0].Value {
		t.Fatalf("header and cookie disagree: %q vs %q", w.Header().Get("X-Client-ID"), cookies[0].Value)
	}
}
