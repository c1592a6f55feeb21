// Package session mirrors the current form values of every mode so a
// client can reload and resume where it left off.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"percently/internal/percent"
	"percently/internal/permalink"
	"percently/internal/storage"
)

// Key is the storage key the snapshot is persisted under.
const Key = "percently_inputs"

// Snapshot maps each mode to its role values, as typed.
type Snapshot map[percent.Mode]map[string]string

// Set replaces the fields of mode with the role values found in inputs.
// Keys that are not roles of mode are ignored.
func (s Snapshot) Set(mode percent.Mode, inputs map[string]string) {
	fields := make(map[string]string, len(inputs))
	for _, key := range mode.RoleKeys() {
		if v, ok := inputs[key]; ok {
			fields[key] = v
		}
	}
	s[mode] = fields
}

// Fields returns a copy of the values of mode.
func (s Snapshot) Fields(mode percent.Mode) map[string]string {
	out := maps.Clone(s[mode])
	if out == nil {
		out = map[string]string{}
	}
	return out
}

// Hydrate copies every field present in from into s. Fields missing from
// from are left as they are.
func (s Snapshot) Hydrate(from Snapshot) {
	for mode, fields := range from {
		if !mode.Valid() {
			continue
		}
		dst, ok := s[mode]
		if !ok {
			dst = map[string]string{}
			s[mode] = dst
		}
		for _, key := range mode.RoleKeys() {
			if v, ok := fields[key]; ok {
				dst[key] = v
			}
		}
	}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for mode, fields := range s {
		out[mode] = maps.Clone(fields)
	}
	return out
}

// Store persists a Snapshot as JSON under Key.
type Store struct {
	storage storage.Storage
}

// NewStore returns a Store over s.
func NewStore(s storage.Storage) *Store {
	return &Store{storage: s}
}

// SaveAll writes snap as the current snapshot.
func (s *Store) SaveAll(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.storage.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// LoadAll returns the last snapshot. A missing or unreadable snapshot is
// empty.
func (s *Store) LoadAll(ctx context.Context) (Snapshot, error) {
	raw, err := s.storage.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read session: %w", err)
	}

	var decoded map[string]map[string]string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return Snapshot{}, nil
	}

	snap := Snapshot{}
	for name, fields := range decoded {
		mode, err := percent.ParseMode(name)
		if err != nil {
			continue
		}
		snap[mode] = fields
	}
	return snap, nil
}

// Update replaces one mode's fields in the stored snapshot and returns the
// snapshot that was written.
func (s *Store) Update(ctx context.Context, mode percent.Mode, inputs map[string]string) (Snapshot, error) {
	snap, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	snap.Set(mode, inputs)
	if err := s.SaveAll(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Location is the query string a client should replace (not push) into its
// address bar after an edit of mode.
func Location(mode percent.Mode, inputs map[string]string) string {
	return "?" + permalink.Link{Mode: mode, Params: inputs}.Encode()
}
