package mitigation

// NodeFailure records a failed per-node step during a drain.
type NodeFailure struct {
	Node string
	Err  error
}

// EvictionFailure records a single pod whose eviction was attempted and
// failed, commonly because a disruption budget blocked it.
type EvictionFailure struct {
	Pod string
	Err error
}

// DrainReport states what a drain actually did. Cordons and evictions
// that failed are listed alongside the ones that succeeded so that
// partial completion is distinguishable from total failure.
type DrainReport struct {
	// CordonedNodes are the nodes successfully marked unschedulable,
	// in the order they were cordoned.
	CordonedNodes []string

	// CordonFailures are nodes that could not be cordoned. These nodes
	// are excluded from the eviction phase: evicting from a still
	// schedulable node invites the displaced pods right back.
	CordonFailures []NodeFailure

	// ListFailures are nodes whose pods could not be enumerated.
	ListFailures []NodeFailure

	// EvictedPods are the namespace-qualified pods successfully
	// evicted.
	EvictedPods []string

	// EvictionFailures are pods whose eviction was attempted and
	// failed, or whose coverage could not be determined.
	EvictionFailures []EvictionFailure
}

// Complete reports whether every step of the drain succeeded.
func (r *DrainReport) Complete() bool {
	return len(r.CordonFailures) == 0 && len(r.ListFailures) == 0 && len(r.EvictionFailures) == 0
}

// IsolationReport states the outcome of isolating a workload behind a
// deny-all network policy.
type IsolationReport struct {
	// PolicyName is the created deny-all network policy.
	PolicyName string

	// Namespace is the namespace the policy was created in.
	Namespace string

	// SelectingLabels are the labels the policy selects on; the same
	// labels are merged into the workload's pod template.
	SelectingLabels map[string]string

	// TemplatePatched reports whether the workload's pod template was
	// tagged with the selecting labels. False with a non-nil error from
	// CreateDenyAllNetworkPolicyForWorkload means the policy exists but
	// selects nothing yet.
	TemplatePatched bool

	// PolicySupportVerified is always false: whether the cluster's
	// network plugin enforces NetworkPolicy objects is a known gap that
	// is surfaced here rather than checked.
	PolicySupportVerified bool

	// ExistingPoliciesPatched is always false: pre-existing policies in
	// the namespace are not updated to exclude the isolated pods from
	// their selection. Also a known gap, surfaced rather than filled.
	ExistingPoliciesPatched bool
}
