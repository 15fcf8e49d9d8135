package k8s

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

func TestUnsupportedSelectorError(t *testing.T) {
	err := &UnsupportedSelectorError{
		Kind:        "Deployment",
		Name:        "web",
		Namespace:   "default",
		Expressions: 2,
	}

	assert.True(t, errors.Is(err, ErrUnsupportedSelector))
	assert.False(t, errors.Is(err, ErrAmbiguousResource))
	assert.Contains(t, err.Error(), "Deployment default/web")
	assert.Contains(t, err.Error(), "2 matchExpressions")
}

func TestAmbiguousResourceError(t *testing.T) {
	err := &AmbiguousResourceError{
		Kind:      "ReplicaSet",
		Namespace: "default",
		Selector:  "app=nginx",
		Matched:   3,
	}

	assert.True(t, errors.Is(err, ErrAmbiguousResource))
	assert.False(t, errors.Is(err, ErrUnsupportedSelector))
	assert.Contains(t, err.Error(), "found 3")
}

func TestPartialOrphanError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &PartialOrphanError{
		Deployment: "web",
		ReplicaSet: "web-abc123",
		Namespace:  "default",
		Err:        cause,
	}

	assert.True(t, errors.Is(err, ErrPartialOrphan))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "web-abc123 still controls")
}

func TestRemoteError(t *testing.T) {
	podsResource := schema.GroupResource{Resource: "pods"}

	t.Run("not found classification", func(t *testing.T) {
		err := wrapRemote("get pod default/web", apierrors.NewNotFound(podsResource, "web"))

		assert.True(t, errors.Is(err, ErrRemoteNotFound))
		assert.False(t, errors.Is(err, ErrRemoteConflict))
		assert.True(t, errors.Is(err, ErrRemoteCall))
	})

	t.Run("conflict classification", func(t *testing.T) {
		err := wrapRemote("patch node worker-1", apierrors.NewConflict(podsResource, "web", errors.New("stale")))

		assert.True(t, errors.Is(err, ErrRemoteConflict))
		assert.False(t, errors.Is(err, ErrRemoteNotFound))
		assert.True(t, errors.Is(err, ErrRemoteCall))
	})

	t.Run("generic failure matches only the call sentinel", func(t *testing.T) {
		err := wrapRemote("list pods", errors.New("connection refused"))

		assert.True(t, errors.Is(err, ErrRemoteCall))
		assert.False(t, errors.Is(err, ErrRemoteNotFound))
		assert.False(t, errors.Is(err, ErrRemoteConflict))
	})

	t.Run("unwraps to the API error", func(t *testing.T) {
		cause := apierrors.NewNotFound(podsResource, "web")
		err := wrapRemote("get pod default/web", cause)

		var statusErr *apierrors.StatusError
		assert.True(t, errors.As(err, &statusErr))
		assert.Contains(t, err.Error(), "get pod default/web")
	})

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, wrapRemote("get pod", nil))
	})
}
