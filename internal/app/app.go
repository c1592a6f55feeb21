// Package app ties normalization, calculation, history and session state
// together behind a per-client Controller.
package app

import (
	"context"

	"go.uber.org/zap"

	"percently/internal/history"
	"percently/internal/percent"
	"percently/internal/session"
	"percently/internal/storage"
)

// Options configure a Service.
type Options struct {
	// HistoryCapacity bounds each client's history log.
	HistoryCapacity int
	// PermalinkBase is the page URL permalinks are built on.
	PermalinkBase string
	Logger        *zap.Logger
}

// Service opens Controllers over shared storage. Local storage holds the
// durable history log; session storage holds form values and controller
// state and is expected to expire with the client's session.
type Service struct {
	engine   *percent.Engine
	local    storage.Storage
	sessions storage.Storage
	opts     Options
}

// NewService returns a Service.
func NewService(engine *percent.Engine, local, sessions storage.Storage, opts Options) *Service {
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = history.DefaultCapacity
	}
	if opts.PermalinkBase == "" {
		opts.PermalinkBase = "/"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{engine: engine, local: local, sessions: sessions, opts: opts}
}

// Engine returns the calculation engine.
func (s *Service) Engine() *percent.Engine {
	return s.engine
}

// HistoryCapacity returns the bound on each client's history log.
func (s *Service) HistoryCapacity() int {
	return s.opts.HistoryCapacity
}

// Open loads the controller of clientID with its persisted form values and
// state. Storage read failures are logged and leave the controller empty.
func (s *Service) Open(ctx context.Context, clientID string) *Controller {
	sessions := storage.Scoped(s.sessions, clientID)
	c := &Controller{
		engine:         s.engine,
		history:        history.NewStore(storage.Scoped(s.local, clientID), s.opts.HistoryCapacity),
		sessions:       session.NewStore(sessions),
		sessionStorage: sessions,
		base:           s.opts.PermalinkBase,
		logger:         s.opts.Logger.With(zap.String("client_id", clientID)),
	}
	c.load(ctx)
	return c
}
