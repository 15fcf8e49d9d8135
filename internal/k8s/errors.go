package k8s

import (
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Sentinel errors for failure classes surfaced by this package.
// They can be checked with errors.Is() for programmatic handling.
var (
	// ErrUnsupportedSelector indicates that a workload's selector uses
	// matchExpressions, so equality-only label resolution cannot proceed.
	// It is always surfaced, never silently approximated: matching pods
	// on an incomplete selector would under- or over-select targets of a
	// containment action.
	ErrUnsupportedSelector = errors.New("selector uses matchExpressions")

	// ErrAmbiguousResource indicates that a lookup which must resolve to
	// exactly one object matched zero or several.
	ErrAmbiguousResource = errors.New("ambiguous resource match")

	// ErrPartialOrphan indicates that orphaning a deployment's pods
	// completed only partially: the deployment was deleted with orphan
	// propagation but deleting its replica set failed, leaving the
	// replica set in control of the pods.
	ErrPartialOrphan = errors.New("workload only partially orphaned")

	// ErrRemoteNotFound classifies API errors for objects that no longer
	// exist; handles are identity-only and the remote object may have
	// been renamed or deleted since the handle was constructed.
	ErrRemoteNotFound = errors.New("remote resource not found")

	// ErrRemoteConflict classifies API conflict errors (stale resource
	// version during a patch or delete).
	ErrRemoteConflict = errors.New("remote resource conflict")

	// ErrRemoteCall classifies any failed call to the orchestration API.
	// Every RemoteError matches it.
	ErrRemoteCall = errors.New("remote call failed")
)

// UnsupportedSelectorError reports a workload whose selector contains
// expression-based match rules.
type UnsupportedSelectorError struct {
	Kind        string
	Name        string
	Namespace   string
	Expressions int
}

// Error implements the error interface.
func (e *UnsupportedSelectorError) Error() string {
	return fmt.Sprintf("%s %s/%s: selector has %d matchExpressions, equality-only matching would be inaccurate",
		e.Kind, e.Namespace, e.Name, e.Expressions)
}

// Is matches ErrUnsupportedSelector for use with errors.Is().
func (e *UnsupportedSelectorError) Is(target error) bool {
	return target == ErrUnsupportedSelector
}

// AmbiguousResourceError reports a resolution query that did not return
// exactly one object. For deployments this typically means a rollout in
// progress (two live replica sets) or a broken ownership invariant; it is
// never resolved by picking an arbitrary result.
type AmbiguousResourceError struct {
	Kind      string
	Namespace string
	Selector  string
	Matched   int
}

// Error implements the error interface.
func (e *AmbiguousResourceError) Error() string {
	return fmt.Sprintf("expected exactly one %s in %s matching %q, found %d",
		e.Kind, e.Namespace, e.Selector, e.Matched)
}

// Is matches ErrAmbiguousResource for use with errors.Is().
func (e *AmbiguousResourceError) Is(target error) bool {
	return target == ErrAmbiguousResource
}

// PartialOrphanError reports the distinct state where a deployment was
// orphan-deleted but its replica set was not. The pods are still managed:
// a caller recovering from this must orphan-delete the replica set itself.
type PartialOrphanError struct {
	Deployment string
	ReplicaSet string
	Namespace  string
	Err        error
}

// Error implements the error interface.
func (e *PartialOrphanError) Error() string {
	return fmt.Sprintf("deployment %s/%s orphaned but replica set %s still controls its pods: %v",
		e.Namespace, e.Deployment, e.ReplicaSet, e.Err)
}

// Unwrap returns the replica-set deletion failure.
func (e *PartialOrphanError) Unwrap() error {
	return e.Err
}

// Is matches ErrPartialOrphan for use with errors.Is().
func (e *PartialOrphanError) Is(target error) bool {
	return target == ErrPartialOrphan
}

// RemoteError wraps a failed call to the orchestration API, classifying it
// against the ErrRemote* sentinels while keeping the underlying client-go
// error reachable through Unwrap for errors.As() on *apierrors.StatusError.
type RemoteError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying API error.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is implements custom matching for errors.Is():
//   - ErrRemoteNotFound when the API reported NotFound
//   - ErrRemoteConflict when the API reported Conflict
//   - ErrRemoteCall always
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteNotFound:
		return apierrors.IsNotFound(e.Err)
	case ErrRemoteConflict:
		return apierrors.IsConflict(e.Err)
	case ErrRemoteCall:
		return true
	}
	return false
}

// wrapRemote wraps err as a RemoteError, annotated with the failed
// operation. A nil err passes through unchanged.
func wrapRemote(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}
