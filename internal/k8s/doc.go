// Package k8s provides a forensics-oriented abstraction over the
// Kubernetes API for incident response: identity-only handles to pods,
// nodes and workloads, label-selector based workload/pod coverage
// resolution, and the containment primitives (cordon, eviction, orphan
// deletion, deny-all network policies) that the mitigation procedures
// compose.
//
// Handles hold no cached remote state. Every read re-fetches, so a
// handle's view is exactly as fresh as its last call and no fresher;
// concurrent external mutation between two calls (a replica set replaced
// between label resolution and pod listing, say) is visible to callers as
// eventual consistency, not hidden behind a snapshot.
//
// Nothing in this package retries. Remote failures are classified against
// the ErrRemote* sentinels and surfaced; retry policy belongs to the
// caller orchestrating a multi-step procedure.
package k8s
