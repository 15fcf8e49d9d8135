package k8s

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Default client settings.
const (
	DefaultQPSLimit   = 50.0
	DefaultBurstLimit = 100
	DefaultTimeout    = 30 * time.Second
)

// Service account paths used to validate in-cluster authentication.
const (
	defaultTokenPath     = "/var/run/secrets/kubernetes.io/serviceaccount/token"
	defaultCACertPath    = "/var/run/secrets/kubernetes.io/serviceaccount/ca.crt"
	defaultNamespacePath = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"
)

// ClientConfig holds connection settings for reaching the cluster.
type ClientConfig struct {
	// KubeconfigPath is an explicit kubeconfig location. When empty the
	// KUBECONFIG environment variable and default loading rules apply.
	KubeconfigPath string

	// Context selects a kubeconfig context; empty means the current one.
	Context string

	// InCluster uses service account authentication instead of a
	// kubeconfig.
	InCluster bool

	// Performance settings; zero values take the defaults above.
	QPSLimit   float32
	BurstLimit int
	Timeout    time.Duration
}

// NewClientset builds a typed clientset from the configuration. All
// handles in this package accept the returned interface, so tests can
// substitute a fake.
func NewClientset(config *ClientConfig) (kubernetes.Interface, error) {
	if config == nil {
		config = &ClientConfig{}
	}

	restConfig, err := buildRestConfig(config)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}
	return clientset, nil
}

// buildRestConfig resolves a rest.Config for either authentication mode
// and applies the performance settings.
func buildRestConfig(config *ClientConfig) (*rest.Config, error) {
	var restConfig *rest.Config
	var err error

	if config.InCluster {
		if err := validateInClusterEnvironment(); err != nil {
			return nil, fmt.Errorf("in-cluster authentication not available: %w", err)
		}
		restConfig, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create in-cluster rest config: %w", err)
		}
	} else {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		if path := kubeconfigPath(config); path != "" {
			loadingRules.ExplicitPath = path
		}

		contextConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			loadingRules,
			&clientcmd.ConfigOverrides{CurrentContext: config.Context},
		)

		restConfig, err = contextConfig.ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create rest config for context %q: %w", config.Context, err)
		}
	}

	restConfig.QPS = config.QPSLimit
	if restConfig.QPS == 0 {
		restConfig.QPS = DefaultQPSLimit
	}
	restConfig.Burst = config.BurstLimit
	if restConfig.Burst == 0 {
		restConfig.Burst = DefaultBurstLimit
	}
	restConfig.Timeout = config.Timeout
	if restConfig.Timeout == 0 {
		restConfig.Timeout = DefaultTimeout
	}

	return restConfig, nil
}

// kubeconfigPath resolves the explicit kubeconfig path, honoring the
// KUBECONFIG environment variable and expanding a leading "~/".
func kubeconfigPath(config *ClientConfig) string {
	path := config.KubeconfigPath
	if path == "" {
		path = os.Getenv("KUBECONFIG")
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}

// validateInClusterEnvironment checks that the service account files
// expected inside a pod are present, producing a clearer error than the
// connection failure that would follow otherwise.
func validateInClusterEnvironment() error {
	for _, path := range []string{defaultTokenPath, defaultCACertPath, defaultNamespacePath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("service account file not found at %s", path)
		}
	}
	return nil
}
