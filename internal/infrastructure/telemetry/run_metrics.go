package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunOutcome is what a finished reconciliation run reports to metrics
type RunOutcome struct {
	Status        string // completed, rejected, failed
	DryRun        bool
	Updated       int
	Errors        map[string]int // per-item error count by reason code
	NegativeStock int
	Duration      time.Duration
}

// RunMetrics records reconciliation run counters and latency
type RunMetrics struct {
	runs          metric.Int64Counter
	items         metric.Int64Counter
	negativeStock metric.Int64Counter
	duration      metric.Float64Histogram
}

// NewRunMetrics registers the run instruments on meter
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	runs, err := meter.Int64Counter("stockrecon.runs",
		metric.WithDescription("Reconciliation runs by final status"),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}
	items, err := meter.Int64Counter("stockrecon.audit_items",
		metric.WithDescription("Audit entries by status and reason"),
		metric.WithUnit("{item}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create audit items counter: %w", err)
	}
	negative, err := meter.Int64Counter("stockrecon.negative_stock",
		metric.WithDescription("Items whose stock went below zero"),
		metric.WithUnit("{item}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create negative stock counter: %w", err)
	}
	duration, err := meter.Float64Histogram("stockrecon.run.duration",
		metric.WithDescription("Wall time of a reconciliation run"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &RunMetrics{
		runs:          runs,
		items:         items,
		negativeStock: negative,
		duration:      duration,
	}, nil
}

// RecordRun adds one run to the counters
func (m *RunMetrics) RecordRun(ctx context.Context, o RunOutcome) {
	if m == nil {
		return
	}
	status := attribute.String("status", o.Status)
	dryRun := attribute.Bool("dry_run", o.DryRun)

	m.runs.Add(ctx, 1, metric.WithAttributes(status, dryRun))
	m.duration.Record(ctx, o.Duration.Seconds(), metric.WithAttributes(status))

	if o.Updated > 0 {
		m.items.Add(ctx, int64(o.Updated), metric.WithAttributes(
			attribute.String("status", "updated"), dryRun))
	}
	for reason, n := range o.Errors {
		m.items.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("status", "error"),
			attribute.String("reason", reason),
			dryRun))
	}
	if o.NegativeStock > 0 {
		m.negativeStock.Add(ctx, int64(o.NegativeStock), metric.WithAttributes(dryRun))
	}
}
