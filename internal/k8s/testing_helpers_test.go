package k8s

import (
	"sync"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

// makePod builds a pod object for seeding the fake clientset.
func makePod(name, namespace string, labels map[string]string, nodeName string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    labels,
		},
		Spec: corev1.PodSpec{NodeName: nodeName},
	}
}

// makeNode builds a node object.
func makeNode(name string) *corev1.Node {
	return &corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: name}}
}

// makeDeployment builds a deployment with an equality-only selector.
func makeDeployment(name, namespace string, matchLabels map[string]string) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: appsv1.DeploymentSpec{
			Selector: &metav1.LabelSelector{MatchLabels: matchLabels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: matchLabels},
			},
		},
	}
}

// makeReplicaSet builds a replica set. The object labels select it from
// its deployment; the selector match labels select its pods.
func makeReplicaSet(name, namespace string, objectLabels, matchLabels map[string]string) *appsv1.ReplicaSet {
	return &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    objectLabels,
		},
		Spec: appsv1.ReplicaSetSpec{
			Selector: &metav1.LabelSelector{MatchLabels: matchLabels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: matchLabels},
			},
		},
	}
}

// evictionRecorder captures pod evictions issued through the policy/v1
// Eviction subresource, which the fake clientset does not handle on its
// own. failFor returns an error for selected pods without stopping the
// recording of later evictions.
type evictionRecorder struct {
	mu      sync.Mutex
	evicted []string // namespace/name, in call order
	failFor map[string]error
}

// install registers the recorder on the fake clientset.
func (r *evictionRecorder) install(clientset *fake.Clientset) {
	clientset.PrependReactor("create", "pods",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			if action.GetSubresource() != "eviction" {
				return false, nil, nil
			}
			create := action.(k8stesting.CreateAction)
			eviction := create.GetObject().(metav1.Object)
			key := action.GetNamespace() + "/" + eviction.GetName()

			r.mu.Lock()
			r.evicted = append(r.evicted, key)
			r.mu.Unlock()

			if err, ok := r.failFor[key]; ok {
				return true, nil, err
			}
			return true, nil, nil
		})
}

// installNodeNamePodFilter teaches the fake clientset to honor the
// spec.nodeName field selector on pod lists, which the object tracker
// ignores by default.
func installNodeNamePodFilter(clientset *fake.Clientset) {
	clientset.PrependReactor("list", "pods",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			listAction := action.(k8stesting.ListActionImpl)
			restrictions := listAction.GetListRestrictions()
			if restrictions.Fields == nil || restrictions.Fields.Empty() {
				return false, nil, nil
			}

			obj, err := clientset.Tracker().List(
				corev1.SchemeGroupVersion.WithResource("pods"),
				corev1.SchemeGroupVersion.WithKind("Pod"),
				listAction.GetNamespace())
			if err != nil {
				return true, nil, err
			}

			podList := obj.(*corev1.PodList)
			filtered := &corev1.PodList{}
			for _, pod := range podList.Items {
				fieldSet := fields.Set{"spec.nodeName": pod.Spec.NodeName}
				if restrictions.Fields.Matches(fieldSet) {
					filtered.Items = append(filtered.Items, pod)
				}
			}
			return true, filtered, nil
		})
}
