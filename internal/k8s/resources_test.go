package k8s

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func TestPodRead(t *testing.T) {
	t.Run("returns the live object", func(t *testing.T) {
		clientset := fake.NewSimpleClientset(
			makePod("web-1", "prod", map[string]string{"app": "web"}, "node-a"),
		)

		pod := NewPod(clientset, "web-1", "prod")
		obj, err := pod.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "web-1", obj.Name)
		assert.Equal(t, "prod", obj.Namespace)
		assert.Equal(t, "node-a", obj.Spec.NodeName)
	})

	t.Run("missing pod classifies as not found", func(t *testing.T) {
		clientset := fake.NewSimpleClientset()

		pod := NewPod(clientset, "ghost", "prod")
		_, err := pod.Read(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRemoteNotFound)
		assert.ErrorIs(t, err, ErrRemoteCall)
		assert.True(t, apierrors.IsNotFound(err))
	})
}

func TestPodLabels(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		makePod("web-1", "prod", map[string]string{"app": "web", "tier": "frontend"}, "node-a"),
	)

	pod := NewPod(clientset, "web-1", "prod")
	labels, err := pod.Labels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"app": "web", "tier": "frontend"}, labels)
}

func TestPodNode(t *testing.T) {
	t.Run("bound pod yields its node", func(t *testing.T) {
		clientset := fake.NewSimpleClientset(
			makePod("web-1", "prod", nil, "node-a"),
		)

		pod := NewPod(clientset, "web-1", "prod")
		node, err := pod.Node(context.Background())
		require.NoError(t, err)
		require.NotNil(t, node)
		assert.Equal(t, "node-a", node.Name)
	})

	t.Run("unbound pod yields nil", func(t *testing.T) {
		clientset := fake.NewSimpleClientset(
			makePod("pending-1", "prod", nil, ""),
		)

		pod := NewPod(clientset, "pending-1", "prod")
		node, err := pod.Node(context.Background())
		require.NoError(t, err)
		assert.Nil(t, node)
	})
}

func TestPodEvict(t *testing.T) {
	t.Run("issues an eviction for the pod", func(t *testing.T) {
		clientset := fake.NewSimpleClientset(
			makePod("web-1", "prod", nil, "node-a"),
		)
		recorder := &evictionRecorder{}
		recorder.install(clientset)

		pod := NewPod(clientset, "web-1", "prod")
		err := pod.Evict(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"prod/web-1"}, recorder.evicted)
	})

	t.Run("disruption budget rejection surfaces as remote error", func(t *testing.T) {
		clientset := fake.NewSimpleClientset(
			makePod("web-1", "prod", nil, "node-a"),
		)
		recorder := &evictionRecorder{
			failFor: map[string]error{
				"prod/web-1": apierrors.NewTooManyRequests("Cannot evict pod as it would violate the pod's disruption budget.", 10),
			},
		}
		recorder.install(clientset)

		pod := NewPod(clientset, "web-1", "prod")
		err := pod.Evict(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRemoteCall)
		assert.NotErrorIs(t, err, ErrRemoteNotFound)
	})
}

func TestPodString(t *testing.T) {
	pod := NewPod(nil, "web-1", "prod")
	assert.Equal(t, "prod/web-1", pod.String())
}

func TestNodeRead(t *testing.T) {
	clientset := fake.NewSimpleClientset(makeNode("node-a"))

	node := NewNode(clientset, "node-a")
	obj, err := node.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "node-a", obj.Name)
}

func TestNodeCordon(t *testing.T) {
	t.Run("patches unschedulable via merge patch", func(t *testing.T) {
		clientset := fake.NewSimpleClientset(makeNode("node-a"))

		node := NewNode(clientset, "node-a")
		err := node.Cordon(context.Background())
		require.NoError(t, err)

		var patchAction k8stesting.PatchActionImpl
		found := false
		for _, action := range clientset.Actions() {
			if action.Matches("patch", "nodes") {
				patchAction = action.(k8stesting.PatchActionImpl)
				found = true
			}
		}
		require.True(t, found, "expected a patch against nodes")
		assert.Equal(t, types.MergePatchType, patchAction.GetPatchType())

		var body struct {
			Spec struct {
				Unschedulable bool `json:"unschedulable"`
			} `json:"spec"`
		}
		require.NoError(t, json.Unmarshal(patchAction.GetPatch(), &body))
		assert.True(t, body.Spec.Unschedulable)

		obj, err := node.Read(context.Background())
		require.NoError(t, err)
		assert.True(t, obj.Spec.Unschedulable)
	})

	t.Run("missing node classifies as not found", func(t *testing.T) {
		clientset := fake.NewSimpleClientset()

		err := NewNode(clientset, "ghost").Cordon(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRemoteNotFound)
	})
}

func TestNodeListPods(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		makePod("web-1", "prod", nil, "node-a"),
		makePod("web-2", "prod", nil, "node-b"),
		makePod("job-1", "batch", nil, "node-a"),
		makePod("pending-1", "prod", nil, ""),
	)
	installNodeNamePodFilter(clientset)

	node := NewNode(clientset, "node-a")
	pods, err := node.ListPods(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(pods))
	for _, pod := range pods {
		names = append(names, pod.String())
	}
	assert.ElementsMatch(t, []string{"prod/web-1", "batch/job-1"}, names)
}

func TestNodeListPodsListFailure(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	clientset.PrependReactor("list", "pods",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, apierrors.NewInternalError(assert.AnError)
		})

	_, err := NewNode(clientset, "node-a").ListPods(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteCall)
}
