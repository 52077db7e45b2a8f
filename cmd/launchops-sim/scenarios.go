package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"launchops-sim/internal/scenario"
)

var scenarioShow string

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List built-in training scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		builtIn := scenario.BuiltIn()
		if scenarioShow != "" {
			s, ok := builtIn[scenarioShow]
			if !ok {
				return fmt.Errorf("unknown scenario %q", scenarioShow)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(s)
		}
		ids := make([]string, 0, len(builtIn))
		for id := range builtIn {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tDIFFICULTY\tFAULTS")
		for _, id := range ids {
			s := builtIn[id]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.ID, s.Name, s.Difficulty, len(s.Faults))
		}
		return tw.Flush()
	},
}

func init() {
	scenariosCmd.Flags().StringVar(&scenarioShow, "show", "", "Print one scenario as YAML")
}
