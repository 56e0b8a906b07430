// Package api defines public API contracts for plugin-vault.
package api

import "context"

// Telemetry traces lifecycle operations and records their counters.
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(ctx context.Context, name string, value float64)
}

// Span is one traced operation.
type Span interface {
	SetError(err error)
	End()
}

// NopTelemetry records nothing.
type NopTelemetry struct{}

func (NopTelemetry) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

func (NopTelemetry) RecordMetric(context.Context, string, float64) {}

type nopSpan struct{}

func (nopSpan) SetError(error) {}
func (nopSpan) End()           {}
