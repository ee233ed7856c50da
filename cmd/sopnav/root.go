package main

import (
	"fmt"
	"os"

	"github.com/aretw0/sopnav/internal/cli"
	"github.com/spf13/cobra"
)

// cfg is resolved before any command runs.
var cfg cli.Config

var rootCmd = &cobra.Command{
	Use:   "sopnav",
	Short: "sopnav guides agents through SOP flowcharts",
	Long: `sopnav loads standard operating procedures written as Markdown with an
embedded flowchart and lets a conversational agent walk them one node at a
time, enforcing legal moves and tracking the agent's tasks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := cli.LoadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cli.RegisterFlags(rootCmd.PersistentFlags())
}
