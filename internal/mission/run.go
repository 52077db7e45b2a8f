package mission

import (
	"time"

	"launchops-sim/internal/fault"
	"launchops-sim/internal/scenario"
	"launchops-sim/internal/telemetry"
)

// Phase is one of the six ordered protocol stages.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseDiagnostics
	PhaseAuthentication
	PhaseValidation
	PhaseKeyAuth
	PhaseLaunch
)

var phaseNames = [...]string{"INIT", "DIAGNOSTICS", "AUTHENTICATION", "VALIDATION", "KEY-AUTH", "LAUNCH"}

func (p Phase) String() string {
	if p < PhaseInit || p > PhaseLaunch {
		return "UNKNOWN"
	}
	return phaseNames[p]
}

// LockMode selects how strictly the administrator suspends the protocol.
type LockMode string

const (
	LockSoft LockMode = "soft"
	LockHard LockMode = "hard"
)

// Run is the mission aggregate. Only the controller mutates it.
type Run struct {
	ID                  string                    `json:"run_id"`
	ScenarioID          string                    `json:"scenario_id"`
	Phase               Phase                     `json:"phase"`
	State               telemetry.SystemState     `json:"system_state"`
	Diagnostics         map[string]fault.Result   `json:"diagnostics"`
	DiagnosticsComplete bool                      `json:"diagnostics_complete"`
	FaultConfig         map[string]fault.Spec     `json:"fault_config"`
	InjectFault         bool                      `json:"inject_fault"`
	AuthVerified        [2]bool                   `json:"auth_verified"`
	CommandValidated    bool                      `json:"command_validated"`
	TargetCoords        *scenario.Coords          `json:"target_coords,omitempty"`
	KeyTurn             [2]bool                   `json:"key_turn"`
	Countdown           int                       `json:"countdown"`
	Locked              bool                      `json:"locked"`
	SoftHold            bool                      `json:"soft_hold"`
	DelayMultiplier     float64                   `json:"delay_multiplier"`
	Checklist           []telemetry.ChecklistItem `json:"checklist,omitempty"`
	DebriefReady        bool                      `json:"debrief_ready"`
	StartedAt           time.Time                 `json:"started_at,omitempty"`
	CompletedAt         time.Time                 `json:"completed_at,omitempty"`
}

// newRun builds the OFFLINE, phase-0 defaults for a scenario.
func newRun(id string, scn *scenario.Scenario) Run {
	diag := make(map[string]fault.Result)
	for _, s := range fault.Catalog() {
		diag[s.ID] = fault.Pending
	}
	return Run{
		ID:              id,
		ScenarioID:      scn.ID,
		Phase:           PhaseInit,
		State:           telemetry.StateOffline,
		Diagnostics:     diag,
		FaultConfig:     scn.FaultConfig(),
		InjectFault:     scn.InjectFault,
		DelayMultiplier: scn.Multiplier(),
		Checklist:       scn.NewChecklist(),
	}
}

// clone returns a deep copy safe to hand to readers.
func (r Run) clone() Run {
	out := r
	out.Diagnostics = make(map[string]fault.Result, len(r.Diagnostics))
	for k, v := range r.Diagnostics {
		out.Diagnostics[k] = v
	}
	out.FaultConfig = make(map[string]fault.Spec, len(r.FaultConfig))
	for k, v := range r.FaultConfig {
		out.FaultConfig[k] = v
	}
	if r.TargetCoords != nil {
		c := *r.TargetCoords
		out.TargetCoords = &c
	}
	if r.Checklist != nil {
		out.Checklist = append([]telemetry.ChecklistItem(nil), r.Checklist...)
	}
	return out
}

func (r Run) stateRow(ts time.Time) telemetry.StateRow {
	diag := make(map[string]string, len(r.Diagnostics))
	for k, v := range r.Diagnostics {
		diag[k] = string(v)
	}
	return telemetry.StateRow{
		RunID:            r.ID,
		Phase:            int(r.Phase),
		State:            r.State,
		Countdown:        r.Countdown,
		Locked:           r.Locked,
		SoftHold:         r.SoftHold,
		CommandValidated: r.CommandValidated,
		Diagnostics:      diag,
		Timestamp:        ts,
	}
}
