package main

import (
	"fmt"

	"github.com/aretw0/sopnav"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <workflow>",
	Short: "Print the workflow topology",
	Long: `Parses a workflow and prints its topology re-serialized as a flowchart.
With --skeleton the labels and annotation nodes are stripped, as an agent
sees the graph under skeleton disclosure.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		skeleton, _ := cmd.Flags().GetBool("skeleton")

		c := cfg
		c.Disclosure = string(sopnav.DisclosureFull)
		if skeleton {
			c.Disclosure = string(sopnav.DisclosureSkeleton)
		}

		_, rt, err := inspectRuntime(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		defer rt.Close()

		topology, err := rt.Engine.Topology(cmd.Context(), scratchSession)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), topology)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("skeleton", false, "Strip labels and annotation nodes")
}
