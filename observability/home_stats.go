package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xhome/home"
	"github.com/benz9527/xhome/lib/infra"
)

const homeMeterName = "github.com/benz9527/xhome/home"

var _ home.Recorder = (*HomeStats)(nil)

// HomeStats counts lookups and observes the size of every house.
type HomeStats struct {
	meter        metric.Meter
	lookups      metric.Int64Counter
	rooms        metric.Int64ObservableGauge
	devices      metric.Int64ObservableGauge
	registration metric.Registration
}

func NewHomeStats(mp metric.MeterProvider) (*HomeStats, error) {
	stats := &HomeStats{
		meter: mp.Meter(homeMeterName),
	}
	var err error
	if stats.lookups, err = stats.meter.Int64Counter(
		"home.lookups",
		metric.WithDescription("Room and device lookups by name."),
	); err != nil {
		return nil, infra.WrapErrorStack(err, "home.lookups")
	}
	if stats.rooms, err = stats.meter.Int64ObservableGauge(
		"home.rooms",
		metric.WithDescription("Rooms linked into a house."),
	); err != nil {
		return nil, infra.WrapErrorStack(err, "home.rooms")
	}
	if stats.devices, err = stats.meter.Int64ObservableGauge(
		"home.devices",
		metric.WithDescription("Devices linked into the rooms of a house."),
	); err != nil {
		return nil, infra.WrapErrorStack(err, "home.devices")
	}
	return stats, nil
}

func (stats *HomeStats) RecordLookup(scope home.LookupScope, hit bool) {
	stats.lookups.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("scope", string(scope)),
		attribute.Bool("hit", hit),
	))
}

// Observe registers the size gauges of houses. Each collection takes the
// read lock of every house. A second call replaces the first one.
func (stats *HomeStats) Observe(houses ...*home.SyncHouse) error {
	if err := stats.Close(); err != nil {
		return err
	}
	registration, err := stats.meter.RegisterCallback(func(_ context.Context, ob metric.Observer) error {
		for _, sh := range houses {
			_ = sh.View(func(h *home.House) error {
				attrs := metric.WithAttributes(attribute.String("house", h.Name()))
				ob.ObserveInt64(stats.rooms, h.Len(), attrs)
				ob.ObserveInt64(stats.devices, h.DeviceCount(), attrs)
				return nil
			})
		}
		return nil
	}, stats.rooms, stats.devices)
	if err != nil {
		return infra.WrapErrorStack(err, "register home gauges")
	}
	stats.registration = registration
	return nil
}

func (stats *HomeStats) Close() error {
	if stats.registration == nil {
		return nil
	}
	err := stats.registration.Unregister()
	stats.registration = nil
	return err
}
