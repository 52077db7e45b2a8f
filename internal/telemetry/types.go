// Mission event and state rows shared by the controller, scoring and sinks
package telemetry

import (
	"os"
	"strings"
	"time"
)

// SystemState is the top-level mission status.
type SystemState string

// System state constants.
const (
	StateOffline      SystemState = "OFFLINE"
	StateInitializing SystemState = "INITIALIZING"
	StateReady        SystemState = "READY"
	StateDegraded     SystemState = "DEGRADED"
	StateFailed       SystemState = "FAILED"
	StateHold         SystemState = "HOLD"
	StateAuthorized   SystemState = "AUTHORIZED"
	StateCountdown    SystemState = "COUNTDOWN"
	StateAborted      SystemState = "ABORTED"
	StateComplete     SystemState = "COMPLETE"
)

// Terminal reports whether no further operator transition is possible.
func (s SystemState) Terminal() bool {
	return s == StateComplete || s == StateAborted
}

// Level is the severity of a log event.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSystem  Level = "system"
)

// LogEvent is one entry of the append-only mission log.
type LogEvent struct {
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"ts"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	IsAdmin   bool      `json:"is_admin"`
}

// Line renders the event in the flat export format:
// [timestamp] [ADMIN] [LEVEL] message
func (e LogEvent) Line() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	b.WriteString("] ")
	if e.IsAdmin {
		b.WriteString("[ADMIN] ")
	}
	b.WriteString("[")
	b.WriteString(strings.ToUpper(string(e.Level)))
	b.WriteString("] ")
	b.WriteString(e.Message)
	return b.String()
}

// ChecklistItem is one operator checklist entry.
type ChecklistItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// StateRow is a flattened snapshot written after each committed transition.
type StateRow struct {
	RunID            string            `json:"run_id"`
	Phase            int               `json:"phase"`
	State            SystemState       `json:"state"`
	Countdown        int               `json:"countdown"`
	Locked           bool              `json:"locked"`
	SoftHold         bool              `json:"soft_hold"`
	CommandValidated bool              `json:"command_validated"`
	Diagnostics      map[string]string `json:"diagnostics,omitempty"`
	Timestamp        time.Time         `json:"ts"`
}

// EventTableName holds the GreptimeDB table for log events.
// It defaults to "mission_events" and can be overridden via MISSION_EVENT_TABLE.
var EventTableName = func() string {
	if env := os.Getenv("MISSION_EVENT_TABLE"); env != "" {
		return env
	}
	return "mission_events"
}()

// StateTableName holds the GreptimeDB table for state rows.
var StateTableName = func() string {
	if env := os.Getenv("MISSION_STATE_TABLE"); env != "" {
		return env
	}
	return "mission_state"
}()

func (LogEvent) TableName() string { return EventTableName }

func (StateRow) TableName() string { return StateTableName }
