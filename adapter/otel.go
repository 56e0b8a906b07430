// Package adapter connects a vault to external systems: OpenTelemetry,
// audit sinks, restart-style command surfaces and an admin HTTP endpoint.
package adapter

import (
	"context"

	cmap "github.com/orcaman/concurrent-map/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/plugin-vault/api"
)

const instrumentationName = "github.com/srediag/plugin-vault"

// OTelAdapter implements api.Telemetry on OpenTelemetry tracer and meter
// providers.
type OTelAdapter struct {
	tracer   trace.Tracer
	meter    metric.Meter
	attrs    []attribute.KeyValue
	counters cmap.ConcurrentMap[string, metric.Float64Counter]
}

// NewOTelAdapter uses the global providers for nil arguments. attrs are
// attached to every span and measurement.
func NewOTelAdapter(tp trace.TracerProvider, mp metric.MeterProvider, attrs ...attribute.KeyValue) *OTelAdapter {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return &OTelAdapter{
		tracer:   tp.Tracer(instrumentationName),
		meter:    mp.Meter(instrumentationName),
		attrs:    attrs,
		counters: cmap.New[metric.Float64Counter](),
	}
}

// StartSpan starts a span named name as a child of ctx.
func (a *OTelAdapter) StartSpan(ctx context.Context, name string) (context.Context, api.Span) {
	ctx, span := a.tracer.Start(ctx, name, trace.WithAttributes(a.attrs...))
	return ctx, otelSpan{span: span}
}

// RecordMetric adds value to the counter called name.
func (a *OTelAdapter) RecordMetric(ctx context.Context, name string, value float64) {
	c, ok := a.counters.Get(name)
	if !ok {
		created, err := a.meter.Float64Counter(name)
		if err != nil {
			otel.Handle(err)
			return
		}
		a.counters.SetIfAbsent(name, created)
		c, _ = a.counters.Get(name)
	}
	c.Add(ctx, value, metric.WithAttributes(a.attrs...))
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) SetError(err error) {
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s otelSpan) End() { s.span.End() }
