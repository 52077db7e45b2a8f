package main

import (
	"github.com/spf13/cobra"

	"launchops-sim/internal/dashboard"
)

var dashboardOut string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards for the GreptimeDB mission tables",
	Long:  "dashboard renders Grafana dashboard JSON; GREPTIMEDB_DATASOURCE_UID names the datasource.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboard.Render(dashboardOut)
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "build", "Output directory")
}
