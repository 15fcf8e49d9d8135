package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCoverageCmd creates the command that resolves which pods a workload
// covers.
func newCoverageCmd() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "coverage <kind> <name>",
		Short: "Show the pods covered by a workload",
		Long: `Resolve a workload's pod-match labels and list the pods they cover.
Kind is deployment or replicaset. Fails when the workload's selector uses
matchExpressions, since equality-only matching would be inaccurate.`,
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

			matchLabels, err := workload.PodMatchLabels(cmd.Context())
			if err != nil {
				return err
			}
			pods, err := workload.GetCoveredPods(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "pod-match labels: %v\n", matchLabels)
			for _, pod := range pods {
				fmt.Fprintln(cmd.OutOrStdout(), pod.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "workload namespace")
	return cmd
}
