package k8s

import (
	"context"
	"fmt"
	"log/slog"

	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/rand"
	"k8s.io/client-go/kubernetes"

	"github.com/zkck/cloud-forensics-utils/internal/logging"
)

// QuarantineLabelKey is the label key carried by pods selected by a
// deny-all network policy created through this package. The value is a
// random suffix unique to one isolation, so repeated isolations in the
// same namespace do not select each other's pods.
const QuarantineLabelKey = "cloud-forensics-utils/quarantine"

// denyAllPolicyPrefix prefixes generated network policy names.
const denyAllPolicyPrefix = "deny-all-"

// Cluster is the entry point for enumerating resources and constructing
// workload handles. It owns nothing beyond the injected API client; all
// state lives in the remote cluster.
type Cluster struct {
	client kubernetes.Interface
	logger *slog.Logger
}

// NewCluster wraps an API client. A nil logger falls back to the default
// slog logger.
func NewCluster(client kubernetes.Interface, logger *slog.Logger) *Cluster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cluster{client: client, logger: logger}
}

// Client exposes the underlying API client for handle construction.
func (c *Cluster) Client() kubernetes.Interface {
	return c.client
}

// ListPods lists pods in the given namespace, or across all namespaces
// when namespace is empty.
func (c *Cluster) ListPods(ctx context.Context, namespace string) ([]*Pod, error) {
	podList, err := c.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, wrapRemote("list pods", err)
	}

	pods := make([]*Pod, 0, len(podList.Items))
	for _, pod := range podList.Items {
		pods = append(pods, NewPod(c.client, pod.Name, pod.Namespace))
	}
	return pods, nil
}

// ListNodes lists the cluster's nodes.
func (c *Cluster) ListNodes(ctx context.Context) ([]*Node, error) {
	nodeList, err := c.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, wrapRemote("list nodes", err)
	}

	nodes := make([]*Node, 0, len(nodeList.Items))
	for _, node := range nodeList.Items {
		nodes = append(nodes, NewNode(c.client, node.Name))
	}
	return nodes, nil
}

// GetDeployment constructs a deployment handle. The remote object is not
// fetched; a name that does not exist surfaces as ErrRemoteNotFound on
// first use.
func (c *Cluster) GetDeployment(name, namespace string) *Deployment {
	return NewDeployment(c.client, name, namespace)
}

// GetReplicaSet constructs a replica set handle without fetching it.
func (c *Cluster) GetReplicaSet(name, namespace string) *ReplicaSet {
	return NewReplicaSet(c.client, name, namespace)
}

// CreateDenyAllNetworkPolicy creates a network policy in the given
// namespace that denies all ingress and egress for the pods it selects.
// The selector is a single generated quarantine label; the policy only
// takes effect on pods that are subsequently tagged with it.
//
// Whether the cluster's network plugin enforces NetworkPolicy objects is
// not verified here; on clusters without enforcement the policy is
// created but inert.
func (c *Cluster) CreateDenyAllNetworkPolicy(ctx context.Context, namespace string) (*networkingv1.NetworkPolicy, error) {
	suffix := rand.String(8)
	policy := &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{
			Name:      denyAllPolicyPrefix + suffix,
			Namespace: namespace,
		},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{
				MatchLabels: map[string]string{QuarantineLabelKey: suffix},
			},
			// No ingress or egress rules: everything is denied for
			// selected pods.
			PolicyTypes: []networkingv1.PolicyType{
				networkingv1.PolicyTypeIngress,
				networkingv1.PolicyTypeEgress,
			},
		},
	}

	created, err := c.client.NetworkingV1().NetworkPolicies(namespace).Create(ctx, policy, metav1.CreateOptions{})
	if err != nil {
		return nil, wrapRemote(fmt.Sprintf("create network policy in %s", namespace), err)
	}

	c.logger.Info("created deny-all network policy",
		logging.Operation("create-network-policy"),
		logging.Namespace(namespace),
		logging.Policy(created.Name))
	return created, nil
}
