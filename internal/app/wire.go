package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"percently/internal/config"
	"percently/internal/format"
	"percently/internal/percent"
	"percently/internal/storage"
)

// redisPrefix namespaces percently keys in a shared Redis.
const redisPrefix = "percently:"

// NewFromConfig opens the storage backends named by cfg and returns a
// Service over them. The returned close function releases both backends.
func NewFromConfig(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Service, func() error, error) {
	local, closeLocal, err := storage.Open(ctx, storage.Options{
		Driver: cfg.History.Driver,
		DSN:    cfg.History.Path,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open history storage: %w", err)
	}

	sessions, closeSessions, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Session.Driver,
		DSN:    cfg.Session.RedisAddr,
		TTL:    cfg.Session.TTL,
		Prefix: redisPrefix,
	})
	if err != nil {
		_ = closeLocal()
		return nil, nil, fmt.Errorf("open session storage: %w", err)
	}

	engine := percent.NewEngine(format.New(cfg.Locale))
	svc := NewService(engine, local, sessions, Options{
		HistoryCapacity: cfg.History.Capacity,
		PermalinkBase:   cfg.PermalinkBase,
		Logger:          logger,
	})

	closeAll := func() error {
		return errors.Join(closeSessions(), closeLocal())
	}
	return svc, closeAll, nil
}
