package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrResult    = "result"
	attrNamespace = "namespace"
	attrWorkload  = "workload_kind"
)

// Result values for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics records counters for the forensic operations.
type Metrics struct {
	nodesCordonedTotal      metric.Int64Counter
	podEvictionsTotal       metric.Int64Counter
	workloadIsolationsTotal metric.Int64Counter
}

// NewMetrics creates a Metrics instance on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.nodesCordonedTotal, err = meter.Int64Counter(
		"forensics_nodes_cordoned_total",
		metric.WithDescription("Total number of nodes cordoned during drains"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create forensics_nodes_cordoned_total counter: %w", err)
	}

	m.podEvictionsTotal, err = meter.Int64Counter(
		"forensics_pod_evictions_total",
		metric.WithDescription("Total number of pod eviction attempts during drains"),
		metric.WithUnit("{eviction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create forensics_pod_evictions_total counter: %w", err)
	}

	m.workloadIsolationsTotal, err = meter.Int64Counter(
		"forensics_workload_isolations_total",
		metric.WithDescription("Total number of workload isolation attempts"),
		metric.WithUnit("{isolation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create forensics_workload_isolations_total counter: %w", err)
	}

	return m, nil
}

// RecordCordon records one cordoned node. Safe on a nil receiver.
func (m *Metrics) RecordCordon(ctx context.Context) {
	if m == nil {
		return
	}
	m.nodesCordonedTotal.Add(ctx, 1)
}

// RecordEviction records one eviction attempt. Safe on a nil receiver.
func (m *Metrics) RecordEviction(ctx context.Context, namespace, result string) {
	if m == nil {
		return
	}
	m.podEvictionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrNamespace, namespace),
		attribute.String(attrResult, result),
	))
}

// RecordIsolation records one isolation attempt. Safe on a nil receiver.
func (m *Metrics) RecordIsolation(ctx context.Context, workloadKind, result string) {
	if m == nil {
		return
	}
	m.workloadIsolationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrWorkload, workloadKind),
		attribute.String(attrResult, result),
	))
}
