/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides OpenTelemetry instruments for remote agent
// invocations.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// AttributeEnricher adds caller-specific attributes (dataset, run ID) to
// the base attributes of every recorded measurement.
type AttributeEnricher func(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue

// Invocations records the count, failures and latency of remote agent
// invocations. Instruments that fail to initialize degrade to no-ops.
type Invocations struct {
	calls    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
	enricher AttributeEnricher
}

// NewInvocations creates the instruments on a meter with the given name.
func NewInvocations(meterName string) *Invocations {
	return newInvocations(otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0")), meterName)
}

func newInvocations(meter metric.Meter, meterName string) *Invocations {
	calls, err := meter.Int64Counter("evalrunner.invocations",
		metric.WithDescription("The number of remote agent invocations"),
		metric.WithUnit("{calls}"))
	if err != nil {
		slog.Warn("Failed to create invocation counter, metrics will be disabled", "error", err, "meter", meterName)
		calls = noop.Int64Counter{}
	}

	errs, err := meter.Int64Counter("evalrunner.invocation.errors",
		metric.WithDescription("The number of remote agent invocations that failed"),
		metric.WithUnit("{calls}"))
	if err != nil {
		slog.Warn("Failed to create invocation error counter, metrics will be disabled", "error", err, "meter", meterName)
		errs = noop.Int64Counter{}
	}

	duration, err := meter.Float64Histogram("evalrunner.invocation.duration",
		metric.WithDescription("Wall time of remote agent invocations"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("Failed to create invocation duration histogram, metrics will be disabled", "error", err, "meter", meterName)
		duration = noop.Float64Histogram{}
	}

	return &Invocations{
		calls:    calls,
		errors:   errs,
		duration: duration,
	}
}

// SetAttributeEnricher sets the enricher applied before every recording.
func (m *Invocations) SetAttributeEnricher(enricher AttributeEnricher) {
	m.enricher = enricher
}

// Record records one finished invocation. outcome is a short label such
// as "success", "null" or an HTTP status class.
func (m *Invocations) Record(ctx context.Context, endpoint, outcome string, elapsed time.Duration, failed bool, attrs ...attribute.KeyValue) {
	baseAttrs := []attribute.KeyValue{
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	}
	if m.enricher != nil {
		baseAttrs = m.enricher(ctx, baseAttrs)
	}
	baseAttrs = append(baseAttrs, attrs...)

	opt := metric.WithAttributes(baseAttrs...)
	m.calls.Add(ctx, 1, opt)
	if failed {
		m.errors.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, elapsed.Seconds(), opt)
}
