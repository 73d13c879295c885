package observability

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"

	"github.com/benz9527/xhome/lib/infra"
	"github.com/benz9527/xhome/xlog"
)

var (
	once sync.Once
)

type appStats struct {
	goroutines   metric.Int64ObservableUpDownCounter
	processes    metric.Int64ObservableUpDownCounter
	rss          metric.Int64ObservableGauge
	proc         *process.Process
	registration metric.Registration
}

func appMeterName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString("xhome/app")
	builder.WriteString("/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

func newAppStats(mp metric.MeterProvider, name string) (*appStats, error) {
	meter := mp.Meter(
		appMeterName(name),
		metric.WithInstrumentationVersion(otelruntime.Version()),
	)
	stats := &appStats{}
	var err error
	if stats.goroutines, err = meter.Int64ObservableUpDownCounter(
		"app.core.goroutines",
		metric.WithDescription(`The application goroutines' info.`),
	); err != nil {
		return nil, err
	}
	if stats.processes, err = meter.Int64ObservableUpDownCounter(
		"app.core.processes",
		metric.WithDescription(`The application processes' info.`),
	); err != nil {
		return nil, err
	}
	if stats.rss, err = meter.Int64ObservableGauge(
		"app.core.rss",
		metric.WithDescription(`The application resident set size.`),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	// Without a process handle the RSS gauge stays silent.
	stats.proc, _ = process.NewProcess(int32(os.Getpid()))

	stats.registration, err = meter.RegisterCallback(func(ctx context.Context, ob metric.Observer) error {
		ob.ObserveInt64(stats.goroutines, int64(runtime.NumGoroutine()))
		ob.ObserveInt64(stats.processes, int64(runtime.GOMAXPROCS(0)))
		if stats.proc == nil {
			return nil
		}
		mem, err := stats.proc.MemoryInfoWithContext(ctx)
		if err != nil {
			return err
		}
		ob.ObserveInt64(stats.rss, int64(mem.RSS))
		return nil
	}, stats.goroutines, stats.processes, stats.rss)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (stats *appStats) shutdown(shutdownFn func(ctx context.Context) error) error {
	err := stats.registration.Unregister()
	if shutdownFn != nil {
		err = multierr.Append(err, shutdownFn(context.Background()))
	}
	return err
}

func (stats *appStats) waitForShutdown(ctx context.Context, logger xlog.XLogger, shutdownFn func(ctx context.Context) error) {
	go func() {
		<-ctx.Done()
		if err := stats.shutdown(shutdownFn); err != nil {
			logger.ErrorStack(infra.WrapErrorStack(err, "app stats shutdown"), "metrics shutdown failed")
		}
	}()
}

// InitAppStats registers the process gauges and the go runtime metrics on
// the global meter provider, once per process. shutdownFn runs when ctx is done.
func InitAppStats(ctx context.Context, name string, logger xlog.XLogger, shutdownFn func(ctx context.Context) error) {
	once.Do(func() {
		if logger == nil {
			logger = xlog.NewNopXLogger()
		}
		mp := otel.GetMeterProvider()
		stats := lo.Must(newAppStats(mp, name))
		lo.Must0(otelruntime.Start(otelruntime.WithMeterProvider(mp)))
		stats.waitForShutdown(ctx, logger, shutdownFn)
	})
}
