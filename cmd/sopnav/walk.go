package main

import (
	"os"

	"github.com/aretw0/sopnav"
	"github.com/aretw0/sopnav/internal/cli"
	"github.com/aretw0/sopnav/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var walkCmd = &cobra.Command{
	Use:   "walk <workflow>",
	Short: "Walk a workflow interactively",
	Long: `Loads a workflow and lets you play the agent: type node ids to move,
"tasks <json>" to update the task list and "help" for the other commands.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		interactive := cli.IsTerminal(os.Stdout)

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		rt, err := cli.NewRuntime(ctx, cfg, cli.NewLogger(cfg))
		if err != nil {
			return err
		}
		defer rt.Close()

		var render tui.Renderer = tui.Plain
		if interactive {
			tui.PrintBanner(os.Stdout, sopnav.Version)
			if r, err := tui.NewRenderer(cli.TerminalWidth(os.Stdout)); err == nil {
				render = r
			} else {
				rt.Logger.Warn("falling back to plain output", "err", err)
			}
		}

		walker := cli.NewWalker(rt.Engine, cli.WalkOptions{
			Ref:       cli.WorkflowRef(args[0]),
			SessionID: sessionID,
			In:        os.Stdin,
			Out:       os.Stdout,
			Render:    render,
			Styled:    interactive,
		})
		return walker.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(walkCmd)
	walkCmd.Flags().String("session", "walk", "Session id to walk under (persisted by file, sqlite, redis and postgres stores)")
}
