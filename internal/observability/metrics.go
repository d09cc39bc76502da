// Package observability provides metrics and logging setup. Metrics go
// through OpenTelemetry with a Prometheus exporter; the registry is
// served by promhttp on /metrics.
package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metric name constants. Centralized so dashboards and tests agree on
// spelling.
const (
	MetricTaskSubmissions = "analyst.tasks.submitted"
	MetricTasksActive     = "analyst.tasks.active"
	MetricStageDuration   = "analyst.stage.duration"
	MetricLLMCost         = "analyst.llm.cost"
)

// Metrics holds the instruments the service records into.
type Metrics struct {
	submissions   metric.Int64Counter
	activeTasks   metric.Int64UpDownCounter
	stageDuration metric.Float64Histogram
	llmCost       metric.Float64Counter
}

// InitProvider builds a meter provider backed by a Prometheus exporter
// registered on registry. A nil registry yields a noop provider, used
// in tests and when metrics are disabled.
func InitProvider(registry *promclient.Registry) (metric.MeterProvider, error) {
	if registry == nil {
		return noop.NewMeterProvider(), nil
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)), nil
}

// NewMetrics creates the instrument set on the given provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter("research-analyst")

	submissions, err := meter.Int64Counter(MetricTaskSubmissions,
		metric.WithDescription("Total research task submissions"))
	if err != nil {
		return nil, err
	}

	activeTasks, err := meter.Int64UpDownCounter(MetricTasksActive,
		metric.WithDescription("Tasks currently in a non-terminal state"))
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(MetricStageDuration,
		metric.WithDescription("Pipeline stage duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	llmCost, err := meter.Float64Counter(MetricLLMCost,
		metric.WithDescription("Cumulative LLM spend"),
		metric.WithUnit("USD"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		submissions:   submissions,
		activeTasks:   activeTasks,
		stageDuration: stageDuration,
		llmCost:       llmCost,
	}, nil
}

// All recording methods tolerate a nil receiver so collaborators can
// hold an optional *Metrics without guarding every call site.

// TaskSubmitted records one accepted submission.
func (m *Metrics) TaskSubmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.submissions.Add(ctx, 1)
	m.activeTasks.Add(ctx, 1)
}

// TaskFinished records a task reaching a terminal state.
func (m *Metrics) TaskFinished(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.activeTasks.Add(ctx, -1)
}

// StageObserved records one stage execution.
func (m *Metrics) StageObserved(ctx context.Context, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
}

// CostRecorded adds one completion's cost to the cumulative spend.
func (m *Metrics) CostRecorded(ctx context.Context, provider, model string, usd float64) {
	if m == nil {
		return
	}
	m.llmCost.Add(ctx, usd, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
	))
}
