package k8s

import (
	"sort"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Selector is a conjunction of label-equality constraints used to filter
// server-side resource listings. The zero value matches everything.
type Selector struct {
	labels map[string]string
}

// FromLabelsDict builds a Selector from a label mapping. It always
// succeeds; an empty or nil mapping yields a selector that matches all
// objects.
func FromLabelsDict(labels map[string]string) Selector {
	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	return Selector{labels: copied}
}

// Empty reports whether the selector has no constraints.
func (s Selector) Empty() bool {
	return len(s.labels) == 0
}

// String serializes the selector to the comma-joined "k=v" form the API
// server accepts as a labelSelector query. Keys are sorted so the output
// is deterministic regardless of map iteration order.
func (s Selector) String() string {
	keys := make([]string, 0, len(s.labels))
	for k := range s.labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	for _, k := range keys {
		clauses = append(clauses, k+"="+s.labels[k])
	}
	return strings.Join(clauses, ",")
}

// ListOptions returns list options carrying this selector as the
// server-side label filter.
func (s Selector) ListOptions() metav1.ListOptions {
	return metav1.ListOptions{LabelSelector: s.String()}
}
