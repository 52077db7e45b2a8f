package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"launchops-sim/internal/scenario"
	"launchops-sim/internal/scoring"
	"launchops-sim/internal/sink"
	"launchops-sim/internal/store"
	"launchops-sim/internal/telemetry"
)

var (
	debriefInput    string
	debriefStates   string
	debriefScenario string
	debriefDB       string
	debriefLimit    int
)

var debriefCmd = &cobra.Command{
	Use:   "debrief",
	Short: "Score a recorded mission or list past performance",
	Long: "debrief rescores a JSONL event log (with an optional state log for the terminal state) " +
		"or, with --db, lists stored performance records newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch {
		case debriefInput != "":
			rec, err := rescore(debriefInput, debriefStates, debriefScenario)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		case debriefDB != "":
			return listHistory(cmd.Context(), out, debriefDB, debriefScenario, debriefLimit)
		default:
			return fmt.Errorf("one of --input or --db is required")
		}
	},
}

// rescore grades a recorded run. The terminal state comes from the last state
// row that is not a hold; checklist ticks are recovered from the event log
// when the scenario is known.
func rescore(eventPath, statePath, scenarioRef string) (scoring.Record, error) {
	events, err := sink.ReadLogFile(eventPath)
	if err != nil {
		return scoring.Record{}, fmt.Errorf("read events: %w", err)
	}
	if len(events) == 0 {
		return scoring.Record{}, fmt.Errorf("event log %s is empty", eventPath)
	}
	elapsed := events[len(events)-1].Timestamp.Sub(events[0].Timestamp).Milliseconds()

	var terminal telemetry.SystemState
	if statePath != "" {
		rows, err := readStates(statePath)
		if err != nil {
			return scoring.Record{}, err
		}
		for i := len(rows) - 1; i >= 0; i-- {
			if rows[i].State != telemetry.StateHold {
				terminal = rows[i].State
				break
			}
		}
	}

	var checklist []telemetry.ChecklistItem
	if scenarioRef != "" {
		scn, err := scenario.Resolve(scenarioRef)
		if err != nil {
			return scoring.Record{}, err
		}
		checklist = replayChecklist(scn.NewChecklist(), events)
	}
	return scoring.Score(events, elapsed, terminal, checklist), nil
}

// replayChecklist applies the "Checklist: <label> checked|unchecked" events
// the controller logs on each toggle.
func replayChecklist(items []telemetry.ChecklistItem, events []telemetry.LogEvent) []telemetry.ChecklistItem {
	for _, ev := range events {
		rest, ok := strings.CutPrefix(ev.Message, "Checklist: ")
		if !ok {
			continue
		}
		for i := range items {
			switch rest {
			case items[i].Label + " checked":
				items[i].Checked = true
			case items[i].Label + " unchecked":
				items[i].Checked = false
			}
		}
	}
	return items
}

func readStates(path string) ([]telemetry.StateRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read states: %w", err)
	}
	defer f.Close()
	var rows []telemetry.StateRow
	dec := json.NewDecoder(f)
	for {
		var row telemetry.StateRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return rows, nil
			}
			return nil, fmt.Errorf("decode state row: %w", err)
		}
		rows = append(rows, row)
	}
}

func listHistory(ctx context.Context, out io.Writer, path, scenarioID string, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	entries, err := st.List(ctx, scenarioID, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tRUN\tSCENARIO\tSTATE\tTIME\tSCORE\tGRADE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1fs\t%d\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.RunID, e.ScenarioID, e.TerminalState,
			float64(e.CompletionTimeMs)/1000, e.Record.OverallScore, e.Record.Grade)
	}
	return tw.Flush()
}

func init() {
	f := debriefCmd.Flags()
	f.StringVar(&debriefInput, "input", "", "Mission event log (JSONL) to rescore")
	f.StringVar(&debriefStates, "states", "", "State log (JSONL) giving the terminal state")
	f.StringVar(&debriefScenario, "scenario", "", "Scenario id or file; filters --db listings")
	f.StringVar(&debriefDB, "db", "", "SQLite performance store to list")
	f.IntVar(&debriefLimit, "limit", 20, "Maximum records to list")
}
