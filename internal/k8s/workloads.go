package k8s

import (
	"context"
	"encoding/json"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
)

// Workload is a controller object (Deployment or ReplicaSet) that manages
// a set of pods through a label selector. Implementations are identity
// handles like Pod and Node: no cached state, every operation is a remote
// call.
type Workload interface {
	// Name returns the workload's name.
	Name() string

	// Namespace returns the workload's namespace.
	Namespace() string

	// Kind returns the workload kind, e.g. "Deployment".
	Kind() string

	// PodMatchLabels resolves the label pairs that pods belonging to
	// this workload carry. Fails with an error matching
	// ErrUnsupportedSelector when the underlying selector uses
	// matchExpressions, and for deployments with an error matching
	// ErrAmbiguousResource when the managed replica set cannot be
	// resolved one-to-one.
	PodMatchLabels(ctx context.Context) (map[string]string, error)

	// GetCoveredPods lists the pods in the workload's namespace covered
	// by its pod-match labels.
	GetCoveredPods(ctx context.Context) ([]*Pod, error)

	// IsCoveringPod reports whether the given pod belongs to this
	// workload: same namespace, and every pod-match label present and
	// equal in the pod's current labels. An empty match-label set
	// covers every pod in the namespace.
	IsCoveringPod(ctx context.Context, pod *Pod) (bool, error)

	// AddTemplateLabels merges the given labels into the workload's pod
	// template via a partial update. Existing template labels not named
	// are preserved; same-key labels are overwritten. The orchestrator
	// applies template changes through its normal reconciliation:
	// replacement pods get the new labels, pods already running keep
	// their old ones until replaced.
	AddTemplateLabels(ctx context.Context, labels map[string]string) error

	// OrphanPods removes the workload's controlling references without
	// deleting its pods, by deleting the controller object(s) with
	// orphan propagation. A second call fails with an error matching
	// ErrRemoteNotFound.
	OrphanPods(ctx context.Context) error

	// Delete removes the workload. With cascade the orchestrator's
	// garbage collector also removes its pods; without, the pods
	// survive unmanaged.
	Delete(ctx context.Context, cascade bool) error
}

// workload carries the identity and behavior shared by both variants.
type workload struct {
	client    kubernetes.Interface
	name      string
	namespace string
}

func (w *workload) Name() string      { return w.name }
func (w *workload) Namespace() string { return w.namespace }

// coveredPods lists pods in the workload's namespace filtered server-side
// by the given match labels.
func (w *workload) coveredPods(ctx context.Context, matchLabels map[string]string) ([]*Pod, error) {
	selector := FromLabelsDict(matchLabels)
	podList, err := w.client.CoreV1().Pods(w.namespace).List(ctx, selector.ListOptions())
	if err != nil {
		return nil, wrapRemote(fmt.Sprintf("list pods covered by %s/%s", w.namespace, w.name), err)
	}

	pods := make([]*Pod, 0, len(podList.Items))
	for _, pod := range podList.Items {
		pods = append(pods, NewPod(w.client, pod.Name, pod.Namespace))
	}
	return pods, nil
}

// covers evaluates the coverage relation for one pod against resolved
// match labels, fetching the pod's current labels.
func (w *workload) covers(ctx context.Context, pod *Pod, matchLabels map[string]string) (bool, error) {
	if pod.Namespace != w.namespace {
		return false, nil
	}
	podLabels, err := pod.Labels(ctx)
	if err != nil {
		return false, err
	}
	return LabelsCover(matchLabels, podLabels), nil
}

// LabelsCover reports whether every key-value pair in matchLabels is
// present and equal in podLabels. An empty matchLabels covers everything.
// A key mapped to the empty string still requires the key to be present,
// the same way the server-side "key=" selector excludes pods without the
// key. Short-circuits on the first mismatch.
func LabelsCover(matchLabels, podLabels map[string]string) bool {
	for k, v := range matchLabels {
		if pv, ok := podLabels[k]; !ok || pv != v {
			return false
		}
	}
	return true
}

// matchLabelsFromSelector extracts the equality mapping from a declared
// selector, rejecting expression-based rules.
func matchLabelsFromSelector(kind, name, namespace string, selector *metav1.LabelSelector) (map[string]string, error) {
	if selector == nil {
		return map[string]string{}, nil
	}
	if len(selector.MatchExpressions) > 0 {
		return nil, &UnsupportedSelectorError{
			Kind:        kind,
			Name:        name,
			Namespace:   namespace,
			Expressions: len(selector.MatchExpressions),
		}
	}
	if selector.MatchLabels == nil {
		return map[string]string{}, nil
	}
	return selector.MatchLabels, nil
}

// templateLabelsPatch builds a strategic-merge patch that touches only
// spec.template.metadata.labels.
func templateLabelsPatch(labels map[string]string) ([]byte, error) {
	patch := map[string]any{
		"spec": map[string]any{
			"template": map[string]any{
				"metadata": map[string]any{
					"labels": labels,
				},
			},
		},
	}
	return json.Marshal(patch)
}

// deleteOptions returns delete options for the requested cascade policy.
func deleteOptions(cascade bool) metav1.DeleteOptions {
	propagation := metav1.DeletePropagationOrphan
	if cascade {
		propagation = metav1.DeletePropagationBackground
	}
	return metav1.DeleteOptions{PropagationPolicy: &propagation}
}

// Deployment is a workload handle for an apps/v1 Deployment.
type Deployment struct {
	workload
}

// NewDeployment constructs a deployment handle. It does not contact the
// API.
func NewDeployment(client kubernetes.Interface, name, namespace string) *Deployment {
	return &Deployment{workload{client: client, name: name, namespace: namespace}}
}

// Kind returns "Deployment".
func (d *Deployment) Kind() string { return "Deployment" }

// Read fetches the current deployment object.
func (d *Deployment) Read(ctx context.Context) (*appsv1.Deployment, error) {
	deployment, err := d.client.AppsV1().Deployments(d.namespace).Get(ctx, d.name, metav1.GetOptions{})
	if err != nil {
		return nil, wrapRemote(fmt.Sprintf("get deployment %s/%s", d.namespace, d.name), err)
	}
	return deployment, nil
}

// MatchLabels reads the deployment's declared selector as an equality
// mapping. These labels select the deployment's replica set, not its pods
// directly.
func (d *Deployment) MatchLabels(ctx context.Context) (map[string]string, error) {
	deployment, err := d.Read(ctx)
	if err != nil {
		return nil, err
	}
	return matchLabelsFromSelector(d.Kind(), d.name, d.namespace, deployment.Spec.Selector)
}

// resolveReplicaSet finds the single replica set managed by this
// deployment via the deployment's matchLabels. A deployment must map to
// exactly one live replica set at any snapshot in time; zero or several
// matches indicate a rollout in progress or a broken invariant and fail
// with AmbiguousResourceError rather than being silently resolved.
func (d *Deployment) resolveReplicaSet(ctx context.Context) (*ReplicaSet, error) {
	matchLabels, err := d.MatchLabels(ctx)
	if err != nil {
		return nil, err
	}

	selector := FromLabelsDict(matchLabels)
	replicaSets, err := d.client.AppsV1().ReplicaSets(d.namespace).List(ctx, selector.ListOptions())
	if err != nil {
		return nil, wrapRemote(fmt.Sprintf("list replica sets of deployment %s/%s", d.namespace, d.name), err)
	}
	if len(replicaSets.Items) != 1 {
		return nil, &AmbiguousResourceError{
			Kind:      "ReplicaSet",
			Namespace: d.namespace,
			Selector:  selector.String(),
			Matched:   len(replicaSets.Items),
		}
	}
	return NewReplicaSet(d.client, replicaSets.Items[0].Name, replicaSets.Items[0].Namespace), nil
}

// PodMatchLabels resolves the deployment's pod-match labels: the declared
// selector of its managed replica set.
func (d *Deployment) PodMatchLabels(ctx context.Context) (map[string]string, error) {
	replicaSet, err := d.resolveReplicaSet(ctx)
	if err != nil {
		return nil, err
	}
	return replicaSet.MatchLabels(ctx)
}

// GetCoveredPods implements Workload.
func (d *Deployment) GetCoveredPods(ctx context.Context) ([]*Pod, error) {
	matchLabels, err := d.PodMatchLabels(ctx)
	if err != nil {
		return nil, err
	}
	return d.coveredPods(ctx, matchLabels)
}

// IsCoveringPod implements Workload.
func (d *Deployment) IsCoveringPod(ctx context.Context, pod *Pod) (bool, error) {
	if pod.Namespace != d.namespace {
		return false, nil
	}
	matchLabels, err := d.PodMatchLabels(ctx)
	if err != nil {
		return false, err
	}
	return d.covers(ctx, pod, matchLabels)
}

// AddTemplateLabels implements Workload.
func (d *Deployment) AddTemplateLabels(ctx context.Context, labels map[string]string) error {
	patch, err := templateLabelsPatch(labels)
	if err != nil {
		return err
	}
	_, err = d.client.AppsV1().Deployments(d.namespace).Patch(ctx, d.name,
		types.StrategicMergePatchType, patch, metav1.PatchOptions{})
	return wrapRemote(fmt.Sprintf("patch template labels of deployment %s/%s", d.namespace, d.name), err)
}

// OrphanPods implements Workload. Deleting only the deployment would
// leave its replica set in control of the pods, so both objects are
// deleted with orphan propagation: the deployment first, then the
// replica set resolved before either deletion. The two calls are not
// atomic; when the second fails the result is a PartialOrphanError
// naming the replica set that still controls the pods.
func (d *Deployment) OrphanPods(ctx context.Context) error {
	replicaSet, err := d.resolveReplicaSet(ctx)
	if err != nil {
		return err
	}
	if err := d.Delete(ctx, false); err != nil {
		return err
	}
	if err := replicaSet.Delete(ctx, false); err != nil {
		return &PartialOrphanError{
			Deployment: d.name,
			ReplicaSet: replicaSet.Name(),
			Namespace:  d.namespace,
			Err:        err,
		}
	}
	return nil
}

// Delete implements Workload.
func (d *Deployment) Delete(ctx context.Context, cascade bool) error {
	err := d.client.AppsV1().Deployments(d.namespace).Delete(ctx, d.name, deleteOptions(cascade))
	return wrapRemote(fmt.Sprintf("delete deployment %s/%s", d.namespace, d.name), err)
}

// ReplicaSet is a workload handle for an apps/v1 ReplicaSet.
type ReplicaSet struct {
	workload
}

// NewReplicaSet constructs a replica set handle. It does not contact the
// API.
func NewReplicaSet(client kubernetes.Interface, name, namespace string) *ReplicaSet {
	return &ReplicaSet{workload{client: client, name: name, namespace: namespace}}
}

// Kind returns "ReplicaSet".
func (r *ReplicaSet) Kind() string { return "ReplicaSet" }

// Read fetches the current replica set object.
func (r *ReplicaSet) Read(ctx context.Context) (*appsv1.ReplicaSet, error) {
	replicaSet, err := r.client.AppsV1().ReplicaSets(r.namespace).Get(ctx, r.name, metav1.GetOptions{})
	if err != nil {
		return nil, wrapRemote(fmt.Sprintf("get replica set %s/%s", r.namespace, r.name), err)
	}
	return replicaSet, nil
}

// MatchLabels reads the replica set's declared selector as an equality
// mapping.
func (r *ReplicaSet) MatchLabels(ctx context.Context) (map[string]string, error) {
	replicaSet, err := r.Read(ctx)
	if err != nil {
		return nil, err
	}
	return matchLabelsFromSelector(r.Kind(), r.name, r.namespace, replicaSet.Spec.Selector)
}

// PodMatchLabels resolves the replica set's pod-match labels, which come
// directly from its own declared selector.
func (r *ReplicaSet) PodMatchLabels(ctx context.Context) (map[string]string, error) {
	return r.MatchLabels(ctx)
}

// GetCoveredPods implements Workload.
func (r *ReplicaSet) GetCoveredPods(ctx context.Context) ([]*Pod, error) {
	matchLabels, err := r.PodMatchLabels(ctx)
	if err != nil {
		return nil, err
	}
	return r.coveredPods(ctx, matchLabels)
}

// IsCoveringPod implements Workload.
func (r *ReplicaSet) IsCoveringPod(ctx context.Context, pod *Pod) (bool, error) {
	if pod.Namespace != r.namespace {
		return false, nil
	}
	matchLabels, err := r.PodMatchLabels(ctx)
	if err != nil {
		return false, err
	}
	return r.covers(ctx, pod, matchLabels)
}

// AddTemplateLabels implements Workload.
func (r *ReplicaSet) AddTemplateLabels(ctx context.Context, labels map[string]string) error {
	patch, err := templateLabelsPatch(labels)
	if err != nil {
		return err
	}
	_, err = r.client.AppsV1().ReplicaSets(r.namespace).Patch(ctx, r.name,
		types.StrategicMergePatchType, patch, metav1.PatchOptions{})
	return wrapRemote(fmt.Sprintf("patch template labels of replica set %s/%s", r.namespace, r.name), err)
}

// OrphanPods implements Workload. A replica set controls its pods
// directly, so a single orphan-propagation delete suffices.
func (r *ReplicaSet) OrphanPods(ctx context.Context) error {
	return r.Delete(ctx, false)
}

// Delete implements Workload.
func (r *ReplicaSet) Delete(ctx context.Context, cascade bool) error {
	err := r.client.AppsV1().ReplicaSets(r.namespace).Delete(ctx, r.name, deleteOptions(cascade))
	return wrapRemote(fmt.Sprintf("delete replica set %s/%s", r.namespace, r.name), err)
}
