package app

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"percently/internal/history"
	"percently/internal/percent"
	"percently/internal/permalink"
	"percently/internal/session"
	"percently/internal/storage"
)

// StateKey is the session storage key of the controller state.
const StateKey = "percently_state"

// State is what a client's controller remembers between events.
type State struct {
	Mode percent.Mode `json:"mode"`
	// Held is the last successful calculation. It is committed to history
	// only when the next successful calculation replaces it.
	Held *history.Entry `json:"held,omitempty"`
}

// View is what a client needs to render after startup.
type View struct {
	Mode     percent.Mode
	Form     session.Snapshot
	Result   *percent.Result
	Location string
}

// Outcome is the result of a submitted calculation.
type Outcome struct {
	Result   percent.Result
	Location string
	// Committed is the held calculation that went into history, if any.
	Committed *history.Entry
}

// Controller handles the events of one client. It is not safe for
// concurrent use; open one per event.
type Controller struct {
	engine   *percent.Engine
	history  *history.Store
	sessions *session.Store
	state    State
	form     session.Snapshot
	base     string
	logger   *zap.Logger

	sessionStorage storage.Storage
}

func (c *Controller) load(ctx context.Context) {
	c.state = State{Mode: percent.ModePercentOf}
	c.form = session.Snapshot{}

	snap, err := c.sessions.LoadAll(ctx)
	if err != nil {
		c.logger.Warn("loading session snapshot failed", zap.Error(err))
	}
	c.form.Hydrate(snap)

	raw, err := c.sessionStorage.Get(ctx, StateKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		c.logger.Warn("loading controller state failed", zap.Error(err))
	default:
		var st State
		if err := json.Unmarshal([]byte(raw), &st); err == nil && st.Mode.Valid() {
			c.state = st
		}
	}
}

// Mode returns the active mode.
func (c *Controller) Mode() percent.Mode {
	return c.state.Mode
}

// Held returns the calculation waiting to be committed to history.
func (c *Controller) Held() *history.Entry {
	return c.state.Held
}

// Form returns a copy of the current field values of every mode.
func (c *Controller) Form() session.Snapshot {
	return c.form.Clone()
}

// Start hydrates the client from a page query string. URL parameters beat
// the session snapshot for the linked mode; with auto=1 the linked
// calculation is shown without touching history.
func (c *Controller) Start(ctx context.Context, rawQuery string) View {
	view := View{}

	link, err := permalink.Parse(rawQuery)
	switch {
	case errors.Is(err, permalink.ErrNoMode):
	case err != nil:
		c.logger.Warn("ignoring unusable page link", zap.String("query", rawQuery), zap.Error(err))
	default:
		c.state.Mode = link.Mode
		c.form.Hydrate(session.Snapshot{link.Mode: link.Params})
		c.saveState(ctx)

		if link.Auto {
			res := c.engine.Evaluate(link.Mode, c.form.Fields(link.Mode))
			view.Result = &res
		}
	}

	view.Mode = c.state.Mode
	view.Form = c.Form()
	view.Location = session.Location(c.state.Mode, c.form.Fields(c.state.Mode))
	return view
}

// SelectMode makes mode the active one.
func (c *Controller) SelectMode(ctx context.Context, mode percent.Mode) string {
	c.state.Mode = mode
	c.saveState(ctx)
	return session.Location(mode, c.form.Fields(mode))
}

// Edit records new field values for mode, mirrors them to session storage
// and returns the location to replace into the address bar.
func (c *Controller) Edit(ctx context.Context, mode percent.Mode, inputs map[string]string) string {
	c.form.Set(mode, inputs)
	if err := c.sessions.SaveAll(ctx, c.form); err != nil {
		c.logger.Warn("saving session snapshot failed", zap.Error(err))
	}
	return c.SelectMode(ctx, mode)
}

// ClearFields empties every field of mode.
func (c *Controller) ClearFields(ctx context.Context, mode percent.Mode) string {
	empty := map[string]string{}
	for _, key := range mode.RoleKeys() {
		empty[key] = ""
	}
	return c.Edit(ctx, mode, empty)
}

// Calculate evaluates mode with inputs. On success the previously held
// calculation is committed to history and this one is held in its place.
func (c *Controller) Calculate(ctx context.Context, mode percent.Mode, inputs map[string]string) Outcome {
	out := Outcome{Location: c.Edit(ctx, mode, inputs)}
	out.Result = c.engine.Evaluate(mode, inputs)
	if !out.Result.OK {
		return out
	}

	if held := c.state.Held; held != nil {
		changed, err := c.history.Add(ctx, *held)
		if err != nil {
			c.logger.Warn("appending history failed", zap.Error(err))
		} else if changed {
			out.Committed = held
		}
	}

	entry := history.FromResult(out.Result)
	c.state.Held = &entry
	c.saveState(ctx)
	return out
}

// History returns the client's log, most recent first.
func (c *Controller) History(ctx context.Context) []history.Entry {
	entries, err := c.history.List(ctx)
	if err != nil {
		c.logger.Warn("reading history failed", zap.Error(err))
	}
	return entries
}

// ClearHistory empties the client's log.
func (c *Controller) ClearHistory(ctx context.Context) error {
	return c.history.Clear(ctx)
}

// LoadEntry puts history entry i back into the form and recomputes it
// without appending anything to history.
func (c *Controller) LoadEntry(ctx context.Context, i int) (Outcome, bool) {
	e, ok := c.entry(ctx, i)
	if !ok {
		return Outcome{}, false
	}
	loc := c.Edit(ctx, e.Mode, e.Params)
	return Outcome{Result: c.engine.Evaluate(e.Mode, e.Params), Location: loc}, true
}

// EntryPermalink builds a shareable URL that recomputes entry i on open.
func (c *Controller) EntryPermalink(ctx context.Context, i int) (string, bool, error) {
	e, ok := c.entry(ctx, i)
	if !ok {
		return "", false, nil
	}
	u, err := c.Permalink(e.Mode, e.Params)
	if err != nil {
		return "", true, err
	}
	return u, true, nil
}

// Permalink builds a shareable URL for mode and inputs with auto=1.
func (c *Controller) Permalink(mode percent.Mode, inputs map[string]string) (string, error) {
	return permalink.Link{Mode: mode, Params: inputs, Auto: true}.URL(c.base)
}

func (c *Controller) entry(ctx context.Context, i int) (history.Entry, bool) {
	e, ok, err := c.history.Get(ctx, i)
	if err != nil {
		c.logger.Warn("reading history failed", zap.Error(err))
		return history.Entry{}, false
	}
	return e, ok
}

func (c *Controller) saveState(ctx context.Context) {
	data, err := json.Marshal(c.state)
	if err != nil {
		c.logger.Warn("encoding controller state failed", zap.Error(err))
		return
	}
	if err := c.sessionStorage.Set(ctx, StateKey, string(data)); err != nil {
		c.logger.Warn("saving controller state failed", zap.Error(err))
	}
}
