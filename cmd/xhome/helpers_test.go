package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/xhome/observability"
	"github.com/benz9527/xhome/xlog"
)

func newTestStats(t *testing.T) *observability.HomeStats {
	t.Helper()
	stats, err := observability.NewHomeStats(sdkmetric.NewMeterProvider())
	require.NoError(t, err)
	return stats
}

func testLogger() xlog.XLogger {
	return xlog.NewXLogger(xlog.WithXLoggerLevel(xlog.LogLevelError))
}
