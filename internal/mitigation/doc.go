// Package mitigation implements the incident-response procedures built
// on the k8s handles: selectively draining a compromised workload's
// nodes while preserving the workload itself, and isolating a workload
// behind a deny-all network policy.
//
// Both procedures are multi-step operations against a live cluster, so
// partial success is an expected outcome. Each returns a report stating
// exactly which steps took effect; callers decide whether and how to
// retry the rest.
package mitigation
