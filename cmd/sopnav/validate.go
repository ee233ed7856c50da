package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/sopnav"
	"github.com/aretw0/sopnav/internal/cli"
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/spf13/cobra"
)

// scratchSession holds the workflow loaded by validate and graph.
const scratchSession = "sopnav-inspect"

var validateCmd = &cobra.Command{
	Use:   "validate <workflow>",
	Short: "Check a workflow for syntax and consistency problems",
	Long: `Parses and compiles a workflow (a file path or an agent name) and reports
consistency warnings. Exits with status 1 when the workflow does not parse.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, rt, err := inspectRuntime(cmd.Context(), cfg, args[0])
		if err != nil {
			var perr *domain.ParseError
			if errors.As(err, &perr) {
				return fmt.Errorf("validation failed: %w", err)
			}
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		fmt.Fprintf(out, "%s v%s: %d nodes, %d decisions, %d terminals, %d warnings\n",
			res.Agent, res.Version, res.Graph.NodeCount,
			len(res.Graph.DecisionNodes), len(res.Graph.TerminalNodes), len(res.Warnings))
		fmt.Fprintln(out, "Workflow is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// inspectRuntime loads ref into a throwaway in-memory session.
func inspectRuntime(ctx context.Context, c cli.Config, ref string) (*sopnav.LoadResult, *cli.Runtime, error) {
	c.Store = cli.StoreMemory
	rt, err := cli.NewRuntime(ctx, c, cli.NewLogger(c))
	if err != nil {
		return nil, nil, err
	}
	res, err := rt.Engine.Load(ctx, scratchSession, sopnav.LoadRequest{Ref: cli.WorkflowRef(ref)})
	if err != nil {
		_ = rt.Close()
		return nil, nil, err
	}
	return res, rt, nil
}
