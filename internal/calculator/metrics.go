package calculator

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric instruments. They are no-ops until InitMetrics runs.
var (
	calcCounter    metric.Int64Counter     = noop.Int64Counter{}
	calcHistogram  metric.Float64Histogram = noop.Float64Histogram{}
	errorCounter   metric.Int64Counter     = noop.Int64Counter{}
	resultGauge    metric.Float64Gauge     = noop.Float64Gauge{}
	historyCounter metric.Int64Counter     = noop.Int64Counter{}
)

// InitMetrics registers the percently OTel instruments on the global meter
// provider. Call it once at startup, after observability.InitMetrics.
func InitMetrics() error {
	meter := otel.Meter("percently")

	var err error

	calcCounter, err = meter.Int64Counter("percently.calculations.total",
		metric.WithDescription("Calculations evaluated, by mode and outcome"),
		metric.WithUnit("{calculation}"),
	)
	if err != nil {
		return fmt.Errorf("creating calculations counter: %w", err)
	}

	calcHistogram, err = meter.Float64Histogram("percently.calculation.duration",
		metric.WithDescription("Duration of calculations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating calculation histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("percently.errors.total",
		metric.WithDescription("Failed calculations and rejected requests, by kind"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("percently.last_result",
		metric.WithDescription("The value of the last successful calculation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	historyCounter, err = meter.Int64Counter("percently.history.commits.total",
		metric.WithDescription("Calculations committed to history"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return fmt.Errorf("creating history counter: %w", err)
	}

	return nil
}
