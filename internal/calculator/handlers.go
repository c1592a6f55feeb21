package calculator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"percently/internal/app"
	"percently/internal/handlers"
	"percently/internal/history"
	"percently/internal/observability"
	"percently/internal/percent"
)

// tracer is the percently domain tracer.
var tracer = otel.Tracer("percently")

// Handler serves the calculator and history endpoints for the client
// resolved by handlers.ClientIDMiddleware.
type Handler struct {
	svc *app.Service
}

// NewHandler returns a Handler over svc.
func NewHandler(svc *app.Service) *Handler {
	return &Handler{svc: svc}
}

// startSpan opens a child span for opName carrying the request and client
// IDs, and returns the trace-aware logger to go with it.
func startSpan(ctx context.Context, opName string, attrs ...attribute.KeyValue) (context.Context, trace.Span, *zap.Logger) {
	attrs = append(attrs,
		attribute.String("request.id", observability.RequestIDFromContext(ctx)),
		attribute.String("client.id", handlers.ClientIDFromContext(ctx)),
	)
	ctx, span := tracer.Start(ctx, opName, trace.WithAttributes(attrs...))
	return ctx, span, observability.LoggerWithTrace(ctx)
}

// controller opens the controller of the request's client.
func (h *Handler) controller(ctx context.Context) *app.Controller {
	return h.svc.Open(ctx, handlers.ClientIDFromContext(ctx))
}

// modeParam resolves {mode}. On failure the error response is already
// written.
func modeParam(ctx context.Context, span trace.Span, logger *zap.Logger, w http.ResponseWriter, r *http.Request, opName string) (percent.Mode, bool) {
	mode, err := percent.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "Unknown calculation selected.", err, http.StatusNotFound, w)
		return 0, false
	}
	return mode, true
}

// ---------------------------------------------------------------------------
// Calculations
// ---------------------------------------------------------------------------

// Modes handles GET /calculator/modes
func (h *Handler) Modes(w http.ResponseWriter, r *http.Request) {
	resp := ModesResponse{Modes: make([]ModeBody, 0, len(percent.Modes))}
	for _, m := range percent.Modes {
		resp.Modes = append(resp.Modes, ModeBody{Mode: m.String(), Title: m.Title(), Roles: m.Roles()})
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// Calculate handles POST /calculator/{mode}. A failed calculation is still a
// 200 response with ok=false; only malformed requests are 4xx.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r.Context(), "percent.calculate")
	defer span.End()

	mode, ok := modeParam(ctx, span, logger, w, r, "calculate")
	if !ok {
		return
	}
	opName := mode.String()
	span.SetName(fmt.Sprintf("percent.%s", opName))
	span.SetAttributes(attribute.String("percent.mode", opName))

	var req CalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	c := h.controller(ctx)

	start := time.Now()
	out := c.Calculate(ctx, mode, req.Inputs)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	res := out.Result
	outcome := "ok"
	if !res.OK {
		outcome = percent.Kind(res.Err)
	}
	attrs := metric.WithAttributes(attribute.String("mode", opName), attribute.String("outcome", outcome))
	calcCounter.Add(ctx, 1, attrs)
	calcHistogram.Record(ctx, elapsed, attrs)

	if !res.OK {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.ErrorMessage)
		errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", opName),
			attribute.String("kind", outcome),
		))
		logger.Info("calculation rejected",
			zap.String("mode", opName),
			zap.String("kind", outcome),
			zap.String("message", res.ErrorMessage),
			zap.String("request_id", observability.RequestIDFromContext(ctx)),
		)
		handlers.WriteJSON(w, http.StatusOK, CalcResponse{Result: newResultBody(res), Location: out.Location})
		return
	}

	resultGauge.Record(ctx, res.Value, metric.WithAttributes(attribute.String("mode", opName)))
	if out.Committed != nil {
		historyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", out.Committed.Mode.String())))
		span.AddEvent("history.commit", trace.WithAttributes(
			attribute.String("mode", out.Committed.Mode.String()),
			attribute.String("display", out.Committed.Display),
		))
	}

	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.Float64("result", res.Value),
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetAttributes(attribute.Float64("percent.result", res.Value))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculation completed",
		zap.String("mode", opName),
		zap.Any("inputs", res.Inputs),
		zap.Float64("result", res.Value),
		zap.String("display", res.Display),
		zap.Bool("history_commit", out.Committed != nil),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
		zap.Float64("duration_ms", elapsed),
	)

	resp := CalcResponse{
		Result:    newResultBody(res),
		Location:  out.Location,
		Committed: out.Committed,
	}
	if link, err := c.Permalink(mode, res.Inputs); err == nil {
		resp.Permalink = link
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// EditInputs handles PUT /calculator/{mode}/inputs. Clients call it on every
// field edit so the session snapshot and address bar stay in sync.
func (h *Handler) EditInputs(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r.Context(), "session.edit")
	defer span.End()

	mode, ok := modeParam(ctx, span, logger, w, r, "edit")
	if !ok {
		return
	}

	var req CalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "edit", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	loc := h.controller(ctx).Edit(ctx, mode, req.Inputs)
	span.SetAttributes(attribute.String("percent.mode", mode.String()))
	handlers.WriteJSON(w, http.StatusOK, EditResponse{Location: loc})
}

// ClearInputs handles POST /calculator/{mode}/clear
func (h *Handler) ClearInputs(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r.Context(), "session.clear")
	defer span.End()

	mode, ok := modeParam(ctx, span, logger, w, r, "clear")
	if !ok {
		return
	}

	loc := h.controller(ctx).ClearFields(ctx, mode)
	handlers.WriteJSON(w, http.StatusOK, EditResponse{Location: loc})
}

// State handles GET /calculator/state. The request's own query string is
// the page URL being opened, e.g. ?mode=percent-of&x=15&y=200&auto=1.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	ctx, span, _ := startSpan(r.Context(), "session.start")
	defer span.End()

	view := h.controller(ctx).Start(ctx, r.URL.RawQuery)

	resp := StateResponse{
		Mode:     view.Mode.String(),
		Form:     view.Form,
		Location: view.Location,
	}
	if view.Result != nil {
		body := newResultBody(*view.Result)
		resp.Result = &body
		span.AddEvent("auto.compute", trace.WithAttributes(attribute.Bool("ok", view.Result.OK)))
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// indexParam resolves {index}. On failure the error response is already
// written.
func indexParam(ctx context.Context, span trace.Span, logger *zap.Logger, w http.ResponseWriter, r *http.Request, opName string) (int, bool) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err == nil && i < 0 {
		err = fmt.Errorf("index %d is negative", i)
	}
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid history index", err, http.StatusBadRequest, w)
		return 0, false
	}
	span.SetAttributes(attribute.Int("history.index", i))
	return i, true
}

// History handles GET /history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ctx, span, _ := startSpan(r.Context(), "history.list")
	defer span.End()

	entries := h.controller(ctx).History(ctx)
	if entries == nil {
		entries = []history.Entry{}
	}
	span.SetAttributes(attribute.Int("history.size", len(entries)))
	handlers.WriteJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Capacity: h.svc.HistoryCapacity()})
}

// ClearHistory handles DELETE /history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r.Context(), "history.clear")
	defer span.End()

	if err := h.controller(ctx).ClearHistory(ctx); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "history.clear", "could not clear history", err, http.StatusInternalServerError, w)
		return
	}

	logger.Info("history cleared", zap.String("request_id", observability.RequestIDFromContext(ctx)))
	w.WriteHeader(http.StatusNoContent)
}

// LoadEntry handles POST /history/{index}/load: the entry is put back into
// the form and recomputed, without being appended to history again.
func (h *Handler) LoadEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r.Context(), "history.load")
	defer span.End()

	i, ok := indexParam(ctx, span, logger, w, r, "history.load")
	if !ok {
		return
	}

	c := h.controller(ctx)
	out, found := c.LoadEntry(ctx, i)
	if !found {
		observability.RecordError(ctx, span, logger, errorCounter, "history.load", "history entry not found", fmt.Errorf("index %d", i), http.StatusNotFound, w)
		return
	}

	res := out.Result
	resp := CalcResponse{Result: newResultBody(res), Location: out.Location}
	if link, err := c.Permalink(res.Mode, res.Inputs); err == nil {
		resp.Permalink = link
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// EntryPermalink handles GET /history/{index}/permalink
func (h *Handler) EntryPermalink(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := startSpan(r.Context(), "history.permalink")
	defer span.End()

	i, ok := indexParam(ctx, span, logger, w, r, "history.permalink")
	if !ok {
		return
	}

	link, found, err := h.controller(ctx).EntryPermalink(ctx, i)
	switch {
	case err != nil:
		observability.RecordError(ctx, span, logger, errorCounter, "history.permalink", "could not build permalink", err, http.StatusInternalServerError, w)
	case !found:
		observability.RecordError(ctx, span, logger, errorCounter, "history.permalink", "history entry not found", fmt.Errorf("index %d", i), http.StatusNotFound, w)
	default:
		handlers.WriteJSON(w, http.StatusOK, PermalinkResponse{URL: link})
	}
}
