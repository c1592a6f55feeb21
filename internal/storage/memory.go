package storage

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Storage. It is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time

	// nextSweep is when Set next drops expired items.
	nextSweep time.Time
}

// NewMemory returns an empty store. A positive ttl expires values that have
// not been written for that long.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	if !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt) {
		delete(m.items, key)
		return "", ErrNotFound
	}
	return item.value, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	item := memoryItem{value: value}
	if m.ttl > 0 {
		item.expiresAt = now.Add(m.ttl)
		if !now.Before(m.nextSweep) {
			m.sweep(now)
		}
	}
	m.items[key] = item
	return nil
}

// sweep drops expired items. Callers hold mu. It runs at most once per ttl,
// so the cost is amortised over the writes in between.
func (m *Memory) sweep(now time.Time) {
	for key, item := range m.items {
		if !item.expiresAt.IsZero() && !now.Before(item.expiresAt) {
			delete(m.items, key)
		}
	}
	m.nextSweep = now.Add(m.ttl)
}

// Len returns the number of items held, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}
