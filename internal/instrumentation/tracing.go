package instrumentation

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name for this module.
const TracerName = "github.com/zkck/cloud-forensics-utils"

// Span attribute keys for forensic operations.
const (
	// SpanAttrWorkload is the workload name.
	SpanAttrWorkload = "forensics.workload"

	// SpanAttrWorkloadKind is the workload kind (Deployment, ReplicaSet).
	SpanAttrWorkloadKind = "forensics.workload_kind"

	// SpanAttrNamespace is the Kubernetes namespace.
	SpanAttrNamespace = "k8s.namespace"

	// SpanAttrNodeCount is the number of nodes targeted by a drain.
	SpanAttrNodeCount = "forensics.node_count"

	// SpanAttrEvictionFailures is the number of evictions that failed.
	SpanAttrEvictionFailures = "forensics.eviction_failures"
)

// Tracer returns the module tracer from the globally installed provider.
// With no provider installed this is a no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
