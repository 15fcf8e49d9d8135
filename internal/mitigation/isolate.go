package mitigation

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zkck/cloud-forensics-utils/internal/instrumentation"
	"github.com/zkck/cloud-forensics-utils/internal/k8s"
	"github.com/zkck/cloud-forensics-utils/internal/logging"
)

// IsolateOptions configures CreateDenyAllNetworkPolicyForWorkload.
type IsolateOptions struct {
	// Logger receives per-step progress; nil falls back to the default
	// slog logger.
	Logger *slog.Logger

	// Metrics receives operation counters; nil disables them.
	Metrics *instrumentation.Metrics
}

// CreateDenyAllNetworkPolicyForWorkload cuts off a workload's network
// traffic: it creates a deny-all network policy in the workload's
// namespace with a unique selecting label, then merges that label into
// the workload's pod template so the policy matches its pods.
//
// The template patch only reaches pods through the orchestrator's normal
// reconciliation; pods already running keep their labels, and isolation,
// until they are replaced. Callers who need the running pods isolated
// immediately must force a rollout.
//
// Two gaps are deliberate and visible in the report rather than filled:
// NetworkPolicy enforcement by the cluster's network plugin is not
// verified, and pre-existing policies in the namespace are not patched
// to exclude the isolated pods from their selection.
//
// A non-nil report alongside a non-nil error means the policy was
// created but the template patch failed: the isolation exists but
// selects nothing yet.
func CreateDenyAllNetworkPolicyForWorkload(ctx context.Context, cluster *k8s.Cluster, workload k8s.Workload, opts IsolateOptions) (*IsolationReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		logging.Workload(workload.Name()),
		logging.Namespace(workload.Namespace()))

	ctx, span := instrumentation.Tracer().Start(ctx, "CreateDenyAllNetworkPolicyForWorkload",
		trace.WithAttributes(
			attribute.String(instrumentation.SpanAttrWorkload, workload.Name()),
			attribute.String(instrumentation.SpanAttrWorkloadKind, workload.Kind()),
			attribute.String(instrumentation.SpanAttrNamespace, workload.Namespace()),
		))
	defer span.End()

	policy, err := cluster.CreateDenyAllNetworkPolicy(ctx, workload.Namespace())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create deny-all policy")
		opts.Metrics.RecordIsolation(ctx, workload.Kind(), instrumentation.ResultError)
		return nil, err
	}

	report := &IsolationReport{
		PolicyName:      policy.Name,
		Namespace:       policy.Namespace,
		SelectingLabels: policy.Spec.PodSelector.MatchLabels,
	}

	if err := workload.AddTemplateLabels(ctx, report.SelectingLabels); err != nil {
		logger.Warn("deny-all policy created but template patch failed",
			logging.Policy(policy.Name), logging.SanitizedErr(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to tag workload template")
		opts.Metrics.RecordIsolation(ctx, workload.Kind(), instrumentation.ResultError)
		return report, err
	}
	report.TemplatePatched = true

	logger.Info("workload isolated",
		logging.Operation("isolate-workload"),
		logging.Policy(policy.Name),
		logging.Status(logging.StatusSuccess))
	opts.Metrics.RecordIsolation(ctx, workload.Kind(), instrumentation.ResultSuccess)
	return report, nil
}
