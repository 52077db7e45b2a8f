package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"launchops-sim/internal/config"
	"launchops-sim/internal/scenario"
	"launchops-sim/internal/sink"
)

var (
	replayInput     string
	replaySpeed     float64
	replayOutput    string
	replayScenario  string
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a mission event log",
	Long:  "replay feeds events from a JSONL event log back into GreptimeDB or STDOUT, preserving their original spacing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		var scn *scenario.Scenario
		if replayScenario != "" {
			s, err := scenario.Resolve(replayScenario)
			if err != nil {
				return err
			}
			scn = s
		}
		w, err := replayWriter(scn)
		if err != nil {
			return err
		}
		return sink.ReplayLogFile(replayInput, w, replaySpeed)
	},
}

// replayWriter sends events to GreptimeDB when GREPTIMEDB_ENDPOINT is set,
// otherwise to STDOUT.
func replayWriter(scn *scenario.Scenario) (sink.EventWriter, error) {
	var env config.Env
	if err := config.ParseEnv(&env); err != nil {
		return nil, err
	}
	if !replayPrintOnly && env.GreptimeEndpoint != "" {
		return sink.NewGreptimeDBWriter(env.GreptimeEndpoint, env.GreptimeDatabase, nil)
	}
	if resolveOutput(replayOutput, stdoutIsTerminal()) == config.OutputJSON {
		return sink.NewJSONStdoutWriter(), nil
	}
	return sink.NewColorStdoutWriter(scn), nil
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to mission event log (JSONL)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 replays without delay)")
	replayCmd.Flags().StringVar(&replayOutput, "output", config.OutputAuto, "Output mode: auto, json or text")
	replayCmd.Flags().StringVar(&replayScenario, "scenario", "", "Scenario to print in the text overview")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print events to STDOUT even when GREPTIMEDB_ENDPOINT is set")
	replayCmd.MarkFlagRequired("input")
}
