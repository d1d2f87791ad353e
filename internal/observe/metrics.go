// Package observe provides observability primitives for Sonotheia:
// OpenTelemetry metrics, tracing helpers, and trace-enriched logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Sonotheia metrics.
const meterName = "github.com/doronpers/sonotheia"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// StageDuration tracks per-stage analysis latency. Use with attributes:
	//   attribute.String("stage", ...), attribute.String("branch", ...)
	StageDuration metric.Float64Histogram

	// PipelineDuration tracks end-to-end decision latency. Use with attribute:
	//   attribute.String("path", "fast"|"full")
	PipelineDuration metric.Float64Histogram

	// ScorerDuration tracks neural scoring backend latency.
	ScorerDuration metric.Float64Histogram

	// --- Counters ---

	// Decisions counts pipeline verdicts. Use with attribute:
	//   attribute.String("decision", "pass"|"fail"|"review")
	Decisions metric.Int64Counter

	// BudgetMisses counts decisions that exceeded the latency budget.
	BudgetMisses metric.Int64Counter

	// SensorFailures counts sensors that panicked or errored and failed
	// open. Use with attribute: attribute.String("sensor", ...)
	SensorFailures metric.Int64Counter

	// ScorerRequests counts neural backend calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ScorerRequests metric.Int64Counter

	// NoisyInputs counts analyses where the environment stage flagged
	// degraded audio and thresholds were relaxed.
	NoisyInputs metric.Int64Counter

	// --- Gauges ---

	// ActiveAnalyses tracks the number of in-flight pipeline runs.
	ActiveAnalyses metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// a sub-second detection budget.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.StageDuration, err = m.Float64Histogram("sonotheia.stage.duration",
		metric.WithDescription("Latency of a single analysis stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineDuration, err = m.Float64Histogram("sonotheia.pipeline.duration",
		metric.WithDescription("End-to-end decision latency by path."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ScorerDuration, err = m.Float64Histogram("sonotheia.scorer.duration",
		metric.WithDescription("Latency of the neural scoring backend."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Decisions, err = m.Int64Counter("sonotheia.decisions",
		metric.WithDescription("Total pipeline verdicts by decision."),
	); err != nil {
		return nil, err
	}
	if met.BudgetMisses, err = m.Int64Counter("sonotheia.budget.misses",
		metric.WithDescription("Total decisions that exceeded the latency budget."),
	); err != nil {
		return nil, err
	}
	if met.SensorFailures, err = m.Int64Counter("sonotheia.sensor.failures",
		metric.WithDescription("Total sensors that failed open, by sensor."),
	); err != nil {
		return nil, err
	}
	if met.ScorerRequests, err = m.Int64Counter("sonotheia.scorer.requests",
		metric.WithDescription("Total neural backend calls by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.NoisyInputs, err = m.Int64Counter("sonotheia.noisy_inputs",
		metric.WithDescription("Total analyses with relaxed thresholds due to a noisy environment."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveAnalyses, err = m.Int64UpDownCounter("sonotheia.active_analyses",
		metric.WithDescription("Number of in-flight pipeline runs."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordDecision records one pipeline verdict.
func (m *Metrics) RecordDecision(ctx context.Context, decision string) {
	m.Decisions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("decision", decision)),
	)
}

// RecordPipelineDuration records one end-to-end run's latency in seconds.
func (m *Metrics) RecordPipelineDuration(ctx context.Context, path string, seconds float64) {
	m.PipelineDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("path", path)),
	)
}

// RecordStageDuration records one stage's latency in seconds.
func (m *Metrics) RecordStageDuration(ctx context.Context, stage, branch string, seconds float64) {
	m.StageDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("branch", branch),
		),
	)
}

// RecordSensorFailure records one sensor failing open.
func (m *Metrics) RecordSensorFailure(ctx context.Context, sensor string) {
	m.SensorFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("sensor", sensor)),
	)
}

// RecordScorerRequest records one neural backend call with its status.
func (m *Metrics) RecordScorerRequest(ctx context.Context, provider, status string) {
	m.ScorerRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}
