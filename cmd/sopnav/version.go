package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/sopnav"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sopnav",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sopnav version %s\n", strings.TrimSpace(sopnav.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
