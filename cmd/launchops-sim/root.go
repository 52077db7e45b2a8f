package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "launchops-sim",
	Short: "Launch-protocol training simulator",
	Long:  "launchops-sim runs, replays and scores two-officer launch-protocol training missions.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(debriefCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(dashboardCmd)
}
