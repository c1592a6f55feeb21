package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecordErrorWritesStandardizedErrorResponse(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	span := trace.SpanFromContext(ctx)
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	counter, err := otel.Meter("test").Int64Counter("test.errors.total")
	if err != nil {
		t.Fatalf("creating counter: %v", err)
	}

	w := httptest.NewRecorder()

	RecordError(
		ctx,
		span,
		logger,
		counter,
		"percent-of",
		"invalid request body",
		errors.New("bad json"),
		http.StatusBadRequest,
		w,
	)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}

	if got := body["error"]; got != "invalid request body" {
		t.Fatalf("expected error %q, got %q", "invalid request body", got)
	}

	if _, ok := body["request_id"]; ok {
		t.Fatal("did not expect request_id field in JSON body")
	}

	if logs.Len() != 1 || logs.All()[0].ContextMap()["request_id"] != "req-1" {
		t.Fatalf("expected one log carrying the request id, got %v", logs.All())
	}
	if lvl := logs.All()[0].Level; lvl != zap.WarnLevel {
		t.Fatalf("expected client error at warn level, got %s", lvl)
	}
}

func TestRecordErrorLogsServerFailuresAtErrorLevel(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)

	counter, err := otel.Meter("test").Int64Counter("test.errors.total")
	if err != nil {
		t.Fatalf("creating counter: %v", err)
	}

	w := httptest.NewRecorder()
	RecordError(ctx, trace.SpanFromContext(ctx), zap.New(core), counter,
		"history.clear", "could not clear history", errors.New("disk full"), http.StatusInternalServerError, w)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if logs.Len() != 1 || logs.All()[0].Level != zap.ErrorLevel {
		t.Fatalf("expected one error-level log, got %v", logs.All())
	}
	if got := logs.All()[0].ContextMap()["status"]; got != int64(http.StatusInternalServerError) {
		t.Fatalf("expected status field 500, got %v", got)
	}
}
