// Package storage provides the key/value stores that back per-client
// history and session state, in the manner of a browser's local and
// session storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when a key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a string key/value store.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Options select and configure a backend.
type Options struct {
	Driver string
	// DSN is a file path for sqlite and an address for redis.
	DSN string
	// TTL expires values after their last write. Zero keeps them forever.
	TTL    time.Duration
	Prefix string
}

// Open builds the backend named by opts.Driver. The returned close function
// releases the backend's resources.
func Open(ctx context.Context, opts Options) (Storage, func() error, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemory(opts.TTL), func() error { return nil }, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case DriverRedis:
		r, err := DialRedis(ctx, opts.DSN, opts.Prefix, opts.TTL)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}

type scoped struct {
	next   Storage
	prefix string
}

// Scoped returns a view of s whose keys are all prefixed with namespace and
// a colon. It isolates one client's keys from another's.
func Scoped(s Storage, namespace string) Storage {
	return &scoped{next: s, prefix: namespace + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.next.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.next.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, s.prefix+key)
}
