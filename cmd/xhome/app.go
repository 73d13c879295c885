package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xhome/config"
	"github.com/benz9527/xhome/home"
	"github.com/benz9527/xhome/lib/infra"
	"github.com/benz9527/xhome/observability"
	"github.com/benz9527/xhome/xlog"
)

const appName = "xhome"

func newHomeStats(lc fx.Lifecycle, cfg *config.Config, logger xlog.XLogger) (*observability.HomeStats, error) {
	shutdown, err := observability.InitMetricsExporter(cfg.Metrics.Exporter, cfg.Metrics.Interval)
	if err != nil {
		return nil, err
	}
	stats, err := observability.NewHomeStats(otel.GetMeterProvider())
	if err != nil {
		return nil, multierr.Append(err, shutdown(context.Background()))
	}

	appCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			observability.InitAppStats(appCtx, appName, logger, nil)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return multierr.Combine(stats.Close(), shutdown(ctx))
		},
	})
	return stats, nil
}

func homeOptions(logger xlog.XLogger, stats *observability.HomeStats) []home.Option {
	return []home.Option{
		home.WithLogger(logger),
		home.WithRecorder(stats),
	}
}

func newHouses(cfg *config.Config, logger xlog.XLogger, stats *observability.HomeStats) ([]*home.SyncHouse, error) {
	built, err := cfg.Build(homeOptions(logger, stats)...)
	if err != nil {
		return nil, err
	}
	houses := lo.Map(built, func(h *home.House, _ int) *home.SyncHouse {
		return home.NewSyncHouse(h)
	})
	if err = stats.Observe(houses...); err != nil {
		return nil, err
	}
	logger.Info("houses built", zap.Strings("houses", lo.Map(houses, func(sh *home.SyncHouse, _ int) string {
		return sh.Name()
	})))
	return houses, nil
}

// refresher refreshes every house once per tick, one pool task per house.
type refresher struct {
	pool     *ants.Pool
	houses   []*home.SyncHouse
	logger   xlog.XLogger
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func (r *refresher) tick() {
	for _, sh := range r.houses {
		if err := r.pool.Submit(sh.Refresh); err != nil {
			r.logger.ErrorStack(infra.WrapErrorStack(err, "submit refresh"), "house refresh skipped",
				zap.String("house", sh.Name()),
			)
		}
	}
}

func (r *refresher) run() {
	ticker := time.NewTicker(r.interval)
	defer func() {
		ticker.Stop()
		close(r.done)
	}()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func startRefresher(lc fx.Lifecycle, f flags, cfg *config.Config, logger xlog.XLogger, houses []*home.SyncHouse) error {
	if f.once || cfg.Refresh.Interval <= 0 {
		return nil
	}
	pool, err := ants.NewPool(cfg.Refresh.Workers, ants.WithLogger(xlog.NewAntsXLogger(logger)))
	if err != nil {
		return infra.WrapErrorStack(err, "refresh pool")
	}
	r := &refresher{
		pool:     pool,
		houses:   houses,
		logger:   logger,
		interval: cfg.Refresh.Interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go r.run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(r.stop)
			select {
			case <-r.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return r.pool.ReleaseTimeout(time.Second)
		},
	})
	return nil
}

func startMetricsServer(lc fx.Lifecycle, f flags, cfg *config.Config, logger xlog.XLogger) {
	if f.once || cfg.Metrics.Exporter != observability.ExporterPrometheus {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	srv := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return infra.WrapErrorStack(err, "listen "+srv.Addr)
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.ErrorStack(infra.WrapErrorStack(err, "serve metrics"), "metrics server stopped")
				}
			}()
			logger.Info("metrics server listening", zap.String("addr", ln.Addr().String()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// reload swaps the houses that keep their name. Houses added to the file
// wait for a restart.
func reload(cfg *config.Config, logger xlog.XLogger, stats *observability.HomeStats, houses []*home.SyncHouse) {
	built, err := cfg.Build(homeOptions(logger, stats)...)
	if err != nil {
		logger.ErrorStack(err, "config reload rejected")
		return
	}
	byName := lo.KeyBy(houses, func(sh *home.SyncHouse) string {
		return sh.Name()
	})
	for _, h := range built {
		sh, ok := byName[h.Name()]
		if !ok {
			logger.Warn("new house ignored until restart", zap.String("house", h.Name()))
			continue
		}
		sh.Swap(h)
		logger.Info("house reloaded", zap.String("house", h.Name()), zap.Int64("rooms", h.Len()))
	}
}

func startWatcher(lc fx.Lifecycle, f flags, logger xlog.XLogger, stats *observability.HomeStats, houses []*home.SyncHouse) {
	if f.once || !f.watch || f.configPath == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return config.Watch(ctx, f.configPath, func(cfg *config.Config, err error) {
				if err != nil {
					logger.ErrorStack(err, "config reload failed")
					return
				}
				reload(cfg, logger, stats, houses)
			})
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
