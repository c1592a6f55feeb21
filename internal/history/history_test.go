package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"percently/internal/percent"
	"percently/internal/storage"
)

func entry(x string) Entry {
	return Entry{
		Mode:    percent.ModePercentOf,
		Params:  map[string]string{"x": x, "y": "200"},
		Display: x,
		Value:   1,
	}
}

func TestAddSuppressesAdjacentDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(0), 8)

	changed, err := s.Add(ctx, entry("15"))
	if err != nil || !changed {
		t.Fatalf("first add: changed=%t err=%v", changed, err)
	}
	changed, err = s.Add(ctx, entry("15"))
	if err != nil || changed {
		t.Fatalf("duplicate add: changed=%t err=%v", changed, err)
	}

	entries, _ := s.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestAddOnlyComparesWithHead(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(0), 8)

	for _, x := range []string{"1", "2", "1"} {
		if _, err := s.Add(ctx, entry(x)); err != nil {
			t.Fatalf("add %s: %v", x, err)
		}
	}

	entries, _ := s.List(ctx)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestAddTruncatesToCapacity(t *testing.T) {
	ctx := context.Background()
	const capacity = 8
	s := NewStore(storage.NewMemory(0), capacity)

	for i := 0; i <= capacity; i++ {
		if _, err := s.Add(ctx, entry(fmt.Sprint(i))); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	entries, _ := s.List(ctx)
	if len(entries) != capacity {
		t.Fatalf("expected %d entries, got %d", capacity, len(entries))
	}

	var got []string
	for _, e := range entries {
		got = append(got, e.Params["x"])
	}
	want := []string{"8", "7", "6", "5", "4", "3", "2", "1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory(0)
	s := NewStore(mem, 0)

	_, _ = s.Add(ctx, entry("1"))
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	entries, _ := s.List(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected empty log, got %d entries", len(entries))
	}
	raw, _ := mem.Get(ctx, Key)
	if raw != "[]" {
		t.Fatalf("expected persisted empty array, got %q", raw)
	}
}

func TestListToleratesCorruptData(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory(0)
	_ = mem.Set(ctx, Key, "{not json")

	entries, err := NewStore(mem, 0).List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty log, got %v", entries)
	}
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(0), 0)
	_, _ = s.Add(ctx, entry("1"))
	_, _ = s.Add(ctx, entry("2"))

	e, ok, err := s.Get(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("get: ok=%t err=%v", ok, err)
	}
	if e.Params["x"] != "1" {
		t.Fatalf("expected older entry at index 1, got %v", e.Params)
	}

	if _, ok, _ := s.Get(ctx, 5); ok {
		t.Fatal("expected out of range index to miss")
	}
}

type failingStorage struct {
	storage.Storage
}

func (failingStorage) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func TestAddWriteFailureKeepsPriorState(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory(0)
	_, _ = NewStore(mem, 0).Add(ctx, entry("1"))

	s := NewStore(failingStorage{Storage: mem}, 0)
	if _, err := s.Add(ctx, entry("2")); err == nil {
		t.Fatal("expected write error")
	}

	entries, _ := s.List(ctx)
	if len(entries) != 1 || entries[0].Params["x"] != "1" {
		t.Fatalf("expected prior log to survive, got %v", entries)
	}
}

func TestEntryEqual(t *testing.T) {
	a := entry("1")
	b := entry("1")
	if !a.Equal(b) {
		t.Fatal("expected equal entries")
	}
	b.Params["y"] = "300"
	if a.Equal(b) {
		t.Fatal("expected params to matter")
	}
	c := entry("1")
	c.Value = math.Pi
	if a.Equal(c) {
		t.Fatal("expected value to matter")
	}
}

func TestNonFiniteValuesPersist(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(0), 8)

	inf := Entry{
		Mode:    percent.ModeIncreaseBy,
		Params:  map[string]string{"x": "1e308", "y": "1e308"},
		Display: "+Inf",
		Value:   math.Inf(1),
	}
	nan := Entry{
		Mode:    percent.ModePercentDiff,
		Params:  map[string]string{"a": "1e308", "b": "-1e308"},
		Display: "NaN",
		Value:   math.NaN(),
	}
	for _, e := range []Entry{inf, nan} {
		if changed, err := s.Add(ctx, e); err != nil || !changed {
			t.Fatalf("Add(%s): changed=%t err=%v", e.Display, changed, err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if !math.IsNaN(got[0].Value) || !math.IsInf(got[1].Value, 1) {
		t.Fatalf("expected NaN then +Inf, got %v and %v", got[0].Value, got[1].Value)
	}
	if diff := cmp.Diff(inf.Params, got[1].Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}

	// A NaN head still suppresses its own repeat.
	if changed, err := s.Add(ctx, nan); err != nil || changed {
		t.Fatalf("repeat NaN entry: changed=%t err=%v", changed, err)
	}
}

func TestEntryJSONWritesNullForNonFinite(t *testing.T) {
	data, err := json.Marshal(Entry{Mode: percent.ModeIncreaseBy, Display: "+Inf", Value: math.Inf(1)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"value":null`) {
		t.Fatalf("expected null value, got %s", data)
	}
}
