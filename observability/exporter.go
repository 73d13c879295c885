package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/xhome/lib/infra"
)

const (
	ExporterNone       = "none"
	ExporterConsole    = "console"
	ExporterPrometheus = "prometheus"
)

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (*metric.MeterProvider, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	return mp, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsExporter() (*metric.MeterProvider, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	return metric.NewMeterProvider(metric.WithReader(exporter)), nil
}

// InitMetricsExporter installs the global meter provider of the given kind
// and returns its shutdown. "none" keeps the otel no-op provider.
func InitMetricsExporter(kind string, interval time.Duration, opts ...stdoutmetric.Option) (func(ctx context.Context) error, error) {
	var (
		mp  *metric.MeterProvider
		err error
	)
	switch kind {
	case "", ExporterNone:
		return func(context.Context) error { return nil }, nil
	case ExporterConsole:
		mp, err = newConsoleMetricsExporter(interval, interval/2+time.Second, opts...)
	case ExporterPrometheus:
		mp, err = newPrometheusMetricsExporter()
	default:
		return nil, infra.NewErrorStack("[observability] unknown metrics exporter " + kind)
	}
	if err != nil {
		return nil, infra.WrapErrorStack(err, "init "+kind+" metrics exporter")
	}
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// MetricsHandler serves the prometheus registry the exporter writes to.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
