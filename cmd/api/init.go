package main

import (
	"context"

	"percently/internal/calculator"
	"percently/internal/config"
	"percently/internal/observability"
)

// initMetrics installs the OTLP meter provider when enabled and creates the
// calculator instruments on whatever provider is global. Add new domain
// InitMetrics calls here as the project grows.
func initMetrics(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	shutdown := func(context.Context) error { return nil }

	if cfg.Telemetry.Metrics {
		var err error
		shutdown, err = observability.InitMetrics(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			return nil, err
		}
	}

	if err := calculator.InitMetrics(); err != nil {
		return nil, err
	}

	return shutdown, nil
}
