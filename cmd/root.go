package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zkck/cloud-forensics-utils/internal/instrumentation"
	"github.com/zkck/cloud-forensics-utils/internal/k8s"
)

// globalOptions holds the flags shared by every subcommand.
type globalOptions struct {
	kubeconfig  string
	kubeContext string
	inCluster   bool
	logLevel    string
	metrics     bool
}

var globalOpts globalOptions

// metricsShutdown flushes exported metrics on exit; set when --metrics
// is enabled.
var metricsShutdown func(context.Context) error

// rootCmd is the base command of the k8sforensics CLI.
var rootCmd = &cobra.Command{
	Use:   "k8sforensics",
	Short: "Kubernetes forensics and incident-response utilities",
	Long: `k8sforensics provides a forensics-oriented view of a Kubernetes
cluster for incident response: enumerate pods and nodes, resolve which
pods a workload covers, and contain a compromised workload by draining
its nodes of unrelated tenants or by isolating it behind a deny-all
network policy.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(globalOpts.logLevel); err != nil {
			return err
		}
		config := instrumentation.DefaultConfig()
		config.ServiceVersion = cmd.Root().Version
		if globalOpts.metrics {
			config.Enabled = true
		}
		shutdown, err := instrumentation.Setup(config)
		if err != nil {
			return err
		}
		metricsShutdown = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsShutdown != nil {
			return metricsShutdown(cmd.Context())
		}
		return nil
	},
}

// SetVersion sets the version for the root command. Called from main to
// inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the entry point for the CLI.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "k8sforensics version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.kubeconfig, "kubeconfig", "", "path to the kubeconfig file (default: $KUBECONFIG or standard loading rules)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.kubeContext, "context", "", "kubeconfig context to use (default: current context)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.inCluster, "in-cluster", false, "use in-cluster service account authentication")
	rootCmd.PersistentFlags().StringVar(&globalOpts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.metrics, "metrics", false, "export operation metrics to stderr on exit")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newCoverageCmd())
	rootCmd.AddCommand(newDrainCmd())
	rootCmd.AddCommand(newIsolateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// setupLogging installs a text slog handler at the requested level on
// stderr, keeping stdout free for command output.
func setupLogging(level string) error {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
	return nil
}

// newCluster builds the cluster entry point from the global connection
// flags.
func newCluster() (*k8s.Cluster, error) {
	clientset, err := k8s.NewClientset(&k8s.ClientConfig{
		KubeconfigPath: globalOpts.kubeconfig,
		Context:        globalOpts.kubeContext,
		InCluster:      globalOpts.inCluster,
	})
	if err != nil {
		return nil, err
	}
	return k8s.NewCluster(clientset, slog.Default()), nil
}

// workloadByKind constructs a workload handle for the supported kinds.
func workloadByKind(cluster *k8s.Cluster, kind, name, namespace string) (k8s.Workload, error) {
	switch strings.ToLower(kind) {
	case "deployment", "deploy":
		return cluster.GetDeployment(name, namespace), nil
	case "replicaset", "rs":
		return cluster.GetReplicaSet(name, namespace), nil
	default:
		return nil, fmt.Errorf("unsupported workload kind %q (expected deployment or replicaset)", kind)
	}
}
