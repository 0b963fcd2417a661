// Package telemetry holds the OpenTelemetry instruments shared by the
// coordinators, the pipeline engine, and the wake-word detector. Emitting
// metrics is an ambient concern carried regardless of the spec's
// observability-UI non-goal: nothing here renders a dashboard, it only
// exposes instruments a Prometheus scraper can read.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/corvid-assistant/corvid"

var stageLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Metrics holds every instrument recorded across the pipeline engine,
// coordinators, and wake-word detector.
type Metrics struct {
	StageDuration metric.Float64Histogram

	ProviderFallbacks metric.Int64Counter
	ProviderFaults    metric.Int64Counter

	WakeWordDetections metric.Int64Counter
	WakeWordFalseStart metric.Int64Counter

	IntentsResolved   metric.Int64Counter
	IntentsUnresolved metric.Int64Counter

	ActiveSessions metric.Int64UpDownCounter
}

// New builds a Metrics from the given provider. Instrument creation only
// fails if the provider itself is misconfigured, which should not happen
// with the SDK-backed providers constructed in cmd/corvid.
func New(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.StageDuration, err = m.Float64Histogram("corvid.pipeline.stage.duration",
		metric.WithDescription("Latency of one pipeline stage execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageLatencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProviderFallbacks, err = m.Int64Counter("corvid.coordinator.fallbacks",
		metric.WithDescription("Count of coordinator invocations that fell through to a fallback provider."),
	); err != nil {
		return nil, err
	}
	if met.ProviderFaults, err = m.Int64Counter("corvid.coordinator.faults",
		metric.WithDescription("Count of provider faults observed by a coordinator."),
	); err != nil {
		return nil, err
	}
	if met.WakeWordDetections, err = m.Int64Counter("corvid.wakeword.detections",
		metric.WithDescription("Count of confirmed wake-word detections."),
	); err != nil {
		return nil, err
	}
	if met.WakeWordFalseStart, err = m.Int64Counter("corvid.wakeword.false_starts",
		metric.WithDescription("Count of above-threshold runs that reset before reaching trigger duration."),
	); err != nil {
		return nil, err
	}
	if met.IntentsResolved, err = m.Int64Counter("corvid.intent.resolved",
		metric.WithDescription("Count of utterances that matched a donation method."),
	); err != nil {
		return nil, err
	}
	if met.IntentsUnresolved, err = m.Int64Counter("corvid.intent.unresolved",
		metric.WithDescription("Count of utterances that matched no donation method."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("corvid.sessions.active",
		metric.WithDescription("Number of session contexts currently tracked."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the package-level Metrics built from the global
// MeterProvider, constructing it on first use.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = New(otel.GetMeterProvider())
		if err != nil {
			panic("telemetry: failed to build default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordStage records one stage's wall-clock duration in seconds.
func (m *Metrics) RecordStage(ctx context.Context, workflow, stage string, seconds float64) {
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("workflow", workflow),
		attribute.String("stage", stage),
	))
}

func (m *Metrics) RecordFallback(ctx context.Context, capability, from, to string) {
	m.ProviderFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) RecordFault(ctx context.Context, capability, provider string) {
	m.ProviderFaults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("provider", provider),
	))
}
