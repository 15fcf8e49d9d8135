package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/zkck/cloud-forensics-utils/internal/instrumentation"
	"github.com/zkck/cloud-forensics-utils/internal/mitigation"
)

// newDrainCmd creates the command for the selective node drain.
func newDrainCmd() *cobra.Command {
	var (
		namespace string
		noCordon  bool
	)

	cmd := &cobra.Command{
		Use:   "drain <kind> <name>",
		Short: "Drain a workload's nodes of all unrelated pods",
		Long: `Evict every pod that does not belong to the given workload from the
nodes hosting it. The workload's own pods are left running so it can be
investigated in place. Nodes are cordoned before any eviction begins
unless --no-cordon is set.

Eviction failures (for example pods protected by a disruption budget)
do not abort the drain; they are reported at the end.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cluster, err := newCluster()
			if err != nil {
				return err
			}
			workload, err := workloadByKind(cluster, args[0], args[1], namespace)
			if err != nil {
				return err
			}

			opts := mitigation.DefaultDrainOptions()
			opts.Cordon = !noCordon
			opts.Logger = slog.Default()
			opts.Metrics = newOperationMetrics()

			report, err := mitigation.DrainWorkloadNodesFromOtherPods(cmd.Context(), workload, opts)
			if err != nil {
				return err
			}
			printDrainReport(cmd, report)
			if !report.Complete() {
				return fmt.Errorf("drain completed partially")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "workload namespace")
	cmd.Flags().BoolVar(&noCordon, "no-cordon", false, "skip cordoning the nodes before eviction")
	return cmd
}

// printDrainReport writes the per-step outcome so partial completion is
// visible to the investigator.
func printDrainReport(cmd *cobra.Command, report *mitigation.DrainReport) {
	out := cmd.OutOrStdout()
	for _, node := range report.CordonedNodes {
		fmt.Fprintf(out, "cordoned\t%s\n", node)
	}
	for _, failure := range report.CordonFailures {
		fmt.Fprintf(out, "cordon-failed\t%s\t%v\n", failure.Node, failure.Err)
	}
	for _, failure := range report.ListFailures {
		fmt.Fprintf(out, "list-failed\t%s\t%v\n", failure.Node, failure.Err)
	}
	for _, pod := range report.EvictedPods {
		fmt.Fprintf(out, "evicted\t%s\n", pod)
	}
	for _, failure := range report.EvictionFailures {
		fmt.Fprintf(out, "evict-failed\t%s\t%v\n", failure.Pod, failure.Err)
	}
}

// newOperationMetrics builds the operation counters on the globally
// installed meter provider. Metrics are best-effort: a setup failure
// disables them rather than blocking the mitigation.
func newOperationMetrics() *instrumentation.Metrics {
	metrics, err := instrumentation.NewMetrics(otel.Meter(instrumentation.TracerName))
	if err != nil {
		slog.Warn("metrics disabled", "error", err)
		return nil
	}
	return metrics
}
