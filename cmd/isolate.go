package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zkck/cloud-forensics-utils/internal/mitigation"
)

// newIsolateCmd creates the command for the deny-all network isolation.
func newIsolateCmd() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "isolate <kind> <name>",
		Short: "Isolate a workload behind a deny-all network policy",
		Long: `Create a deny-all network policy in the workload's namespace and tag
the workload's pod template with the policy's selecting label.

The label reaches pods through normal reconciliation: replacement pods
are isolated, pods already running are not until they are replaced.
NetworkPolicy enforcement by the cluster's network plugin is not
verified, and pre-existing policies in the namespace are not modified.`,
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

			opts := mitigation.IsolateOptions{
				Logger:  slog.Default(),
				Metrics: newOperationMetrics(),
			}
			report, isolateErr := mitigation.CreateDenyAllNetworkPolicyForWorkload(cmd.Context(), cluster, workload, opts)
			if report != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "policy\t%s/%s\n", report.Namespace, report.PolicyName)
				fmt.Fprintf(out, "selecting labels\t%v\n", report.SelectingLabels)
				fmt.Fprintf(out, "template patched\t%t\n", report.TemplatePatched)
			}
			return isolateErr
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "workload namespace")
	return cmd
}
