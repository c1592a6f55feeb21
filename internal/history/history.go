// Package history keeps a bounded, most-recent-first log of calculations.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"

	"percently/internal/percent"
	"percently/internal/storage"
)

// Key is the storage key the log is persisted under.
const Key = "percently_history"

// DefaultCapacity bounds the log when no capacity is configured.
const DefaultCapacity = 30

// Entry is one recorded calculation. Params hold the literal strings the
// user typed, keyed by role.
type Entry struct {
	Mode    percent.Mode      `json:"mode"`
	Params  map[string]string `json:"params"`
	Display string            `json:"display"`
	Value   float64           `json:"value"`
}

type entryJSON struct {
	Mode    percent.Mode      `json:"mode"`
	Params  map[string]string `json:"params"`
	Display string            `json:"display"`
	Value   *float64          `json:"value"`
}

// MarshalJSON writes a non-finite Value as null; Display still carries it.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{Mode: e.Mode, Params: e.Params, Display: e.Display}
	if !math.IsInf(e.Value, 0) && !math.IsNaN(e.Value) {
		v := e.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a null Value from Display, or NaN when Display is
// not a plain number.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = Entry{Mode: in.Mode, Params: in.Params, Display: in.Display}
	switch {
	case in.Value != nil:
		e.Value = *in.Value
	default:
		v, err := strconv.ParseFloat(in.Display, 64)
		if err != nil {
			v = math.NaN()
		}
		e.Value = v
	}
	return nil
}

// FromResult builds an entry from a successful result.
func FromResult(res percent.Result) Entry {
	return Entry{
		Mode:    res.Mode,
		Params:  maps.Clone(res.Inputs),
		Display: res.Display,
		Value:   res.Value,
	}
}

// Equal reports whether e and o hold the same values.
func (e Entry) Equal(o Entry) bool {
	return e.Mode == o.Mode &&
		e.Display == o.Display &&
		(e.Value == o.Value || math.IsNaN(e.Value) && math.IsNaN(o.Value)) &&
		maps.Equal(e.Params, o.Params)
}

// Store persists the log as a JSON array under Key.
type Store struct {
	storage  storage.Storage
	capacity int
}

// NewStore returns a Store over s. A non-positive capacity uses
// DefaultCapacity.
func NewStore(s storage.Storage, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{storage: s, capacity: capacity}
}

// Capacity returns the maximum number of entries kept.
func (s *Store) Capacity() int {
	return s.capacity
}

// List returns the log, most recent first. A missing or unreadable log is
// empty.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	raw, err := s.storage.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return []Entry{}, fmt.Errorf("read history: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return []Entry{}, nil
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Add puts e at the head of the log. It is a no-op when e equals the current
// head; otherwise the log is truncated to capacity and persisted. Add
// reports whether the log changed.
func (s *Store) Add(ctx context.Context, e Entry) (bool, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	if len(entries) > 0 && entries[0].Equal(e) {
		return false, nil
	}

	next := make([]Entry, 0, min(len(entries)+1, s.capacity))
	next = append(next, e)
	for _, old := range entries {
		if len(next) == s.capacity {
			break
		}
		next = append(next, old)
	}

	if err := s.save(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the entry at index i of List.
func (s *Store) Get(ctx context.Context, i int) (Entry, bool, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	if i < 0 || i >= len(entries) {
		return Entry{}, false, nil
	}
	return entries[i], true, nil
}

// Clear empties the log.
func (s *Store) Clear(ctx context.Context) error {
	return s.save(ctx, []Entry{})
}

func (s *Store) save(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.storage.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
