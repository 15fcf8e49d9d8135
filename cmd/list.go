package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newListCmd creates the `list` command group with its pods and nodes
// subcommands.
func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Enumerate cluster resources",
	}
	cmd.AddCommand(newListPodsCmd())
	cmd.AddCommand(newListNodesCmd())
	return cmd
}

func newListPodsCmd() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "pods",
		Short: "List pods cluster-wide or in one namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cluster, err := newCluster()
			if err != nil {
				return err
			}
			pods, err := cluster.ListPods(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			for _, pod := range pods {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", pod.Namespace, pod.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace to list (default: all namespaces)")
	return cmd
}

func newListNodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List cluster nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cluster, err := newCluster()
			if err != nil {
				return err
			}
			nodes, err := cluster.ListNodes(cmd.Context())
			if err != nil {
				return err
			}
			for _, node := range nodes {
				fmt.Fprintln(cmd.OutOrStdout(), node.Name)
			}
			return nil
		},
	}
}
