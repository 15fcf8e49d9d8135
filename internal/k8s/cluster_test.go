package k8s

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestClusterListPods(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		makePod("web-1", "prod", nil, "node-a"),
		makePod("web-2", "prod", nil, "node-b"),
		makePod("job-1", "batch", nil, "node-a"),
	)
	cluster := NewCluster(clientset, nil)

	t.Run("single namespace", func(t *testing.T) {
		pods, err := cluster.ListPods(context.Background(), "prod")
		require.NoError(t, err)

		names := make([]string, 0, len(pods))
		for _, pod := range pods {
			names = append(names, pod.String())
		}
		assert.ElementsMatch(t, []string{"prod/web-1", "prod/web-2"}, names)
	})

	t.Run("empty namespace means all namespaces", func(t *testing.T) {
		pods, err := cluster.ListPods(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, pods, 3)
	})
}

func TestClusterListNodes(t *testing.T) {
	clientset := fake.NewSimpleClientset(makeNode("node-a"), makeNode("node-b"))
	cluster := NewCluster(clientset, nil)

	nodes, err := cluster.ListNodes(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(nodes))
	for _, node := range nodes {
		names = append(names, node.Name)
	}
	assert.ElementsMatch(t, []string{"node-a", "node-b"}, names)
}

func TestClusterWorkloadHandles(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	cluster := NewCluster(clientset, nil)

	deployment := cluster.GetDeployment("nginx", "prod")
	assert.Equal(t, "nginx", deployment.Name())
	assert.Equal(t, "prod", deployment.Namespace())
	assert.Equal(t, "Deployment", deployment.Kind())

	replicaSet := cluster.GetReplicaSet("nginx-7d9f", "prod")
	assert.Equal(t, "ReplicaSet", replicaSet.Kind())

	// Handle construction alone must not touch the API.
	assert.Empty(t, clientset.Actions())
}

func TestCreateDenyAllNetworkPolicy(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	cluster := NewCluster(clientset, nil)

	policy, err := cluster.CreateDenyAllNetworkPolicy(context.Background(), "prod")
	require.NoError(t, err)

	t.Run("name carries the deny-all prefix and a suffix", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(policy.Name, "deny-all-"))
		assert.Greater(t, len(policy.Name), len("deny-all-"))
	})

	t.Run("selector matches the quarantine label for this policy", func(t *testing.T) {
		suffix := strings.TrimPrefix(policy.Name, "deny-all-")
		assert.Equal(t, map[string]string{QuarantineLabelKey: suffix},
			policy.Spec.PodSelector.MatchLabels)
	})

	t.Run("denies both directions with no allow rules", func(t *testing.T) {
		assert.ElementsMatch(t, []networkingv1.PolicyType{
			networkingv1.PolicyTypeIngress,
			networkingv1.PolicyTypeEgress,
		}, policy.Spec.PolicyTypes)
		assert.Empty(t, policy.Spec.Ingress)
		assert.Empty(t, policy.Spec.Egress)
	})

	t.Run("repeated isolations use distinct selectors", func(t *testing.T) {
		other, err := cluster.CreateDenyAllNetworkPolicy(context.Background(), "prod")
		require.NoError(t, err)
		assert.NotEqual(t, policy.Name, other.Name)
		assert.NotEqual(t,
			policy.Spec.PodSelector.MatchLabels[QuarantineLabelKey],
			other.Spec.PodSelector.MatchLabels[QuarantineLabelKey])
	})
}
