package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics installs a global meter provider that periodically pushes to
// the OTLP/HTTP endpoint from the environment.
func InitMetrics(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	exporter, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(
			metric.NewPeriodicReader(exporter),
		),
	)

	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// HTTPRequests counts served requests by route pattern and status class.
// It is exposed on /metrics for scrapers that do not speak OTLP.
var HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "percently",
	Name:      "http_requests_total",
	Help:      "HTTP requests served, by method, route and status class.",
}, []string{"method", "route", "status"})

func init() {
	prometheus.MustRegister(HTTPRequests)
}

func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}
