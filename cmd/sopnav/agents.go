package main

import (
	"fmt"

	"github.com/aretw0/sopnav/internal/cli"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents that can be loaded by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		c.Store = cli.StoreMemory
		rt, err := cli.NewRuntime(cmd.Context(), c, cli.NewLogger(c))
		if err != nil {
			return err
		}
		defer rt.Close()

		agents, err := rt.Engine.Agents(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(agents) == 0 {
			fmt.Fprintf(out, "No agents found in %s.\n", c.AgentsDir)
			return nil
		}
		for _, a := range agents {
			fmt.Fprintln(out, a)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}
