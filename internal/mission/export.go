package mission

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"launchops-sim/internal/fault"
	"launchops-sim/internal/scoring"
	"launchops-sim/internal/telemetry"
)

// Entry is a scored run handed to the performance repository.
type Entry struct {
	RunID            string                `json:"run_id"`
	ScenarioID       string                `json:"scenario_id"`
	TerminalState    telemetry.SystemState `json:"terminal_state"`
	CompletionTimeMs int64                 `json:"completion_time_ms"`
	Record           scoring.Record        `json:"performance"`
	CreatedAt        time.Time             `json:"created_at"`
}

// PerformanceRepository persists scored runs. The controller only writes.
type PerformanceRepository interface {
	Create(ctx context.Context, e Entry) error
}

// Debrief is the structured post-mission report.
type Debrief struct {
	MissionID        string                    `json:"mission_id"`
	ScenarioID       string                    `json:"scenario_id"`
	CompletionTimeMs int64                     `json:"completion_time_ms"`
	TerminalState    telemetry.SystemState     `json:"terminal_state"`
	Diagnostics      map[string]fault.Result   `json:"diagnostics"`
	Checklist        []telemetry.ChecklistItem `json:"checklist"`
	Logs             []telemetry.LogEvent      `json:"logs"`
	Performance      *scoring.Record           `json:"performance,omitempty"`
}

// ExportLogs renders the event log one line per event.
func (c *Controller) ExportLogs() string {
	var b strings.Builder
	for _, ev := range c.events {
		b.WriteString(ev.Line())
		b.WriteByte('\n')
	}
	return b.String()
}

// Debrief assembles the report for the current run.
func (c *Controller) Debrief() Debrief {
	run := c.run.clone()
	d := Debrief{
		MissionID:        run.ID,
		ScenarioID:       run.ScenarioID,
		CompletionTimeMs: c.completionTime().Milliseconds(),
		TerminalState:    c.terminalState(),
		Diagnostics:      run.Diagnostics,
		Checklist:        run.Checklist,
		Logs:             c.Events(),
	}
	if c.performance != nil {
		rec := *c.performance
		d.Performance = &rec
	}
	return d
}

// ExportDebrief serializes the debrief as indented JSON.
func (c *Controller) ExportDebrief() ([]byte, error) {
	return json.MarshalIndent(c.Debrief(), "", "  ")
}
