package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
)

// Pod is an identity-only handle to a pod. It holds no cached remote
// state: every accessor re-fetches, so staleness is a caller-visible
// concern rather than hidden cache behavior. The remote pod may be
// deleted independently, in which case operations fail with an error
// matching ErrRemoteNotFound.
type Pod struct {
	client    kubernetes.Interface
	Name      string
	Namespace string
}

// NewPod constructs a pod handle. It does not contact the API.
func NewPod(client kubernetes.Interface, name, namespace string) *Pod {
	return &Pod{client: client, Name: name, Namespace: namespace}
}

// Read fetches the current pod object.
func (p *Pod) Read(ctx context.Context) (*corev1.Pod, error) {
	pod, err := p.client.CoreV1().Pods(p.Namespace).Get(ctx, p.Name, metav1.GetOptions{})
	if err != nil {
		return nil, wrapRemote(fmt.Sprintf("get pod %s/%s", p.Namespace, p.Name), err)
	}
	return pod, nil
}

// Labels fetches the pod's current label mapping.
func (p *Pod) Labels(ctx context.Context) (map[string]string, error) {
	pod, err := p.Read(ctx)
	if err != nil {
		return nil, err
	}
	return pod.Labels, nil
}

// NodeName fetches the name of the node the pod is bound to. It is empty
// for a pod that has not been scheduled yet.
func (p *Pod) NodeName(ctx context.Context) (string, error) {
	pod, err := p.Read(ctx)
	if err != nil {
		return "", err
	}
	return pod.Spec.NodeName, nil
}

// Node returns a handle to the pod's bound node, or nil if the pod is not
// scheduled.
func (p *Pod) Node(ctx context.Context) (*Node, error) {
	nodeName, err := p.NodeName(ctx)
	if err != nil {
		return nil, err
	}
	if nodeName == "" {
		return nil, nil
	}
	return NewNode(p.client, nodeName), nil
}

// Evict requests eviction of the pod through the policy/v1 Eviction
// subresource. Eviction respects disruption budgets: a pod protected by a
// budget fails with a 429-class API error, which is surfaced to the
// caller, not retried.
func (p *Pod) Evict(ctx context.Context) error {
	eviction := &policyv1.Eviction{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.Name,
			Namespace: p.Namespace,
		},
	}
	err := p.client.PolicyV1().Evictions(p.Namespace).Evict(ctx, eviction)
	return wrapRemote(fmt.Sprintf("evict pod %s/%s", p.Namespace, p.Name), err)
}

// String returns the namespace-qualified pod name.
func (p *Pod) String() string {
	return p.Namespace + "/" + p.Name
}

// Node is an identity-only handle to a cluster node. Nodes are
// cluster-scoped, so there is no namespace.
type Node struct {
	client kubernetes.Interface
	Name   string
}

// NewNode constructs a node handle. It does not contact the API.
func NewNode(client kubernetes.Interface, name string) *Node {
	return &Node{client: client, Name: name}
}

// Read fetches the current node object.
func (n *Node) Read(ctx context.Context) (*corev1.Node, error) {
	node, err := n.client.CoreV1().Nodes().Get(ctx, n.Name, metav1.GetOptions{})
	if err != nil {
		return nil, wrapRemote(fmt.Sprintf("get node %s", n.Name), err)
	}
	return node, nil
}

// cordonPatch marks a node unschedulable. Merge-patch semantics keep the
// update scoped to the single spec field.
var cordonPatch = []byte(`{"spec":{"unschedulable":true}}`)

// Cordon marks the node unschedulable so no new pods land on it.
func (n *Node) Cordon(ctx context.Context) error {
	_, err := n.client.CoreV1().Nodes().Patch(ctx, n.Name,
		types.MergePatchType, cordonPatch, metav1.PatchOptions{})
	return wrapRemote(fmt.Sprintf("cordon node %s", n.Name), err)
}

// ListPods lists the pods bound to this node across all namespaces, via a
// server-side field selector on spec.nodeName.
func (n *Node) ListPods(ctx context.Context) ([]*Pod, error) {
	fieldSelector := fields.OneTermEqualSelector("spec.nodeName", n.Name).String()
	podList, err := n.client.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{
		FieldSelector: fieldSelector,
	})
	if err != nil {
		return nil, wrapRemote(fmt.Sprintf("list pods on node %s", n.Name), err)
	}

	pods := make([]*Pod, 0, len(podList.Items))
	for _, pod := range podList.Items {
		pods = append(pods, NewPod(n.client, pod.Name, pod.Namespace))
	}
	return pods, nil
}
