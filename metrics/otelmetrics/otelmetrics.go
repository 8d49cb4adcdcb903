// Package otelmetrics adapts an OpenTelemetry MeterProvider to the
// metrics.Provider contract, so an Endpoint can be wired to a real metrics
// pipeline instead of the package's basic in-memory provider.
package otelmetrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	api "go.opentelemetry.io/otel/metric"
	sdk "go.opentelemetry.io/otel/sdk/metric"

	"github.com/opencube-horizon/collective/metrics"
)

// ShutdownFunc flushes and stops the underlying MeterProvider.
type ShutdownFunc func(ctx context.Context) error

// NewStdout builds a Provider backed by an OpenTelemetry SDK MeterProvider
// that periodically exports to stdout, for demos and local debugging
// (cmd/collsim uses it with --metrics=stdout). interval of zero selects a
// 10s default.
func NewStdout(interval time.Duration) (metrics.Provider, ShutdownFunc, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdk.NewMeterProvider(
		sdk.WithReader(sdk.NewPeriodicReader(exporter, sdk.WithInterval(interval))),
	)

	return New(mp.Meter("collective")), mp.Shutdown, nil
}

// Provider adapts an api.Meter to metrics.Provider.
type Provider struct {
	meter api.Meter
}

// New wraps an already-constructed OpenTelemetry meter.
func New(meter api.Meter) *Provider {
	return &Provider{meter: meter}
}

func toOtelOpts(opts ...metrics.InstrumentOption) (string, string) {
	var cfg metrics.InstrumentConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg.Description, cfg.Unit
}

func (p *Provider) Counter(name string, opts ...metrics.InstrumentOption) metrics.Counter {
	desc, unit := toOtelOpts(opts...)
	c, err := p.meter.Int64Counter(name, api.WithDescription(desc), api.WithUnit(unit))
	if err != nil {
		return noopCounter{}
	}
	return otelCounter{c: c}
}

func (p *Provider) UpDownCounter(name string, opts ...metrics.InstrumentOption) metrics.UpDownCounter {
	desc, unit := toOtelOpts(opts...)
	c, err := p.meter.Int64UpDownCounter(name, api.WithDescription(desc), api.WithUnit(unit))
	if err != nil {
		return noopUpDownCounter{}
	}
	return otelUpDownCounter{c: c}
}

func (p *Provider) Histogram(name string, opts ...metrics.InstrumentOption) metrics.Histogram {
	desc, unit := toOtelOpts(opts...)
	h, err := p.meter.Float64Histogram(name, api.WithDescription(desc), api.WithUnit(unit))
	if err != nil {
		return noopHistogram{}
	}
	return otelHistogram{h: h}
}

type otelCounter struct{ c api.Int64Counter }

func (o otelCounter) Add(n int64) { o.c.Add(context.Background(), n) }

type otelUpDownCounter struct{ c api.Int64UpDownCounter }

func (o otelUpDownCounter) Add(n int64) { o.c.Add(context.Background(), n) }

type otelHistogram struct{ h api.Float64Histogram }

func (o otelHistogram) Record(v float64) { o.h.Record(context.Background(), v) }

type noopCounter struct{}

func (noopCounter) Add(int64) {}

type noopUpDownCounter struct{}

func (noopUpDownCounter) Add(int64) {}

type noopHistogram struct{}

func (noopHistogram) Record(float64) {}
