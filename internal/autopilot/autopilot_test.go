package autopilot

import (
	"strings"
	"testing"
	"time"

	"launchops-sim/internal/fault"
	"launchops-sim/internal/mission"
	"launchops-sim/internal/scenario"
	"launchops-sim/internal/schedule"
	"launchops-sim/internal/telemetry"
)

type constRand float64

func (r constRand) Float64() float64 { return float64(r) }

func setup(t *testing.T, scn *scenario.Scenario, opts Options) (*Pilot, *mission.Controller, *schedule.Manual) {
	t.Helper()
	sched := schedule.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	p := New(sched, opts)
	ctrl := mission.NewController(scn, sched, mission.Options{Rand: constRand(0.5), Writer: p})
	return p, ctrl, sched
}

func isDone(p *Pilot) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}

func drill() *scenario.Scenario {
	return &scenario.Scenario{
		ID:              "drill",
		TrainingCodes:   []string{"ALPHA-7", "BRAVO-9"},
		TargetCoords:    &scenario.Coords{Lat: "51.5", Lon: "-0.12"},
		DelayMultiplier: 1,
		Checklist: []scenario.ChecklistEntry{
			{ID: "power", Label: "Power verified"},
			{ID: "comms", Label: "Comms verified"},
		},
	}
}

func TestPilotCompletesMission(t *testing.T) {
	p, ctrl, sched := setup(t, drill(), Options{})
	p.Bind(ctrl)
	sched.RunUntilIdle(500)

	if !isDone(p) {
		t.Fatalf("pilot did not finish")
	}
	run := ctrl.Snapshot()
	if run.State != telemetry.StateComplete || !run.DebriefReady {
		t.Fatalf("expected completed run, got %s debrief=%v", run.State, run.DebriefReady)
	}
	if run.TargetCoords == nil || *run.TargetCoords != (scenario.Coords{Lat: "51.5", Lon: "-0.12"}) {
		t.Fatalf("scenario target not used: %+v", run.TargetCoords)
	}
	for _, item := range run.Checklist {
		if !item.Checked {
			t.Fatalf("checklist item %s left unchecked", item.ID)
		}
	}
	rec, ok := ctrl.Performance()
	if !ok {
		t.Fatalf("missing performance record")
	}
	if rec.ErrorCount != 0 || rec.WarningCount != 0 {
		t.Fatalf("pilot should fly a clean run, got %d errors %d warnings", rec.ErrorCount, rec.WarningCount)
	}
}

func TestPilotFallsBackToDefaultTarget(t *testing.T) {
	scn := drill()
	scn.TargetCoords = nil
	p, ctrl, sched := setup(t, scn, Options{Pace: 100 * time.Millisecond})
	p.Bind(ctrl)
	sched.RunUntilIdle(500)
	run := ctrl.Snapshot()
	if run.TargetCoords == nil || *run.TargetCoords != fallbackTarget {
		t.Fatalf("expected fallback target, got %+v", run.TargetCoords)
	}
}

func TestPilotWaitsForAdministratorOverride(t *testing.T) {
	scn := drill()
	scn.Faults = map[string]fault.Spec{fault.Reactor: {Type: fault.HardFailure}}
	p, ctrl, sched := setup(t, scn, Options{})
	p.Bind(ctrl)
	sched.RunUntilIdle(500)

	if isDone(p) {
		t.Fatalf("pilot should wait for an administrator, not finish")
	}
	if !p.blocked {
		t.Fatalf("pilot did not record the failed diagnostics")
	}
	run := ctrl.Snapshot()
	if run.Phase != mission.PhaseDiagnostics || run.State != telemetry.StateFailed {
		t.Fatalf("expected run held in failed diagnostics, got phase %d state %s", run.Phase, run.State)
	}
	if sched.Pending() != 0 {
		t.Fatalf("expected no pending work, got %d", sched.Pending())
	}
	for _, ev := range ctrl.Events() {
		if strings.HasPrefix(ev.Message, "Diagnostics rejected") {
			t.Fatalf("pilot re-ran diagnostics after a failure: %+v", ev)
		}
	}

	ctrl.ForceDiagnostics(map[string]fault.Result{fault.Reactor: fault.Pass})
	sched.RunUntilIdle(500)
	if !isDone(p) {
		t.Fatalf("pilot did not resume after the override")
	}
	if run := ctrl.Snapshot(); run.State != telemetry.StateComplete || !run.DebriefReady {
		t.Fatalf("expected completed run, got %s debrief=%v", run.State, run.DebriefReady)
	}
}

func TestPilotWaitsOutHold(t *testing.T) {
	p, ctrl, sched := setup(t, drill(), Options{})
	ctrl.Lock(mission.LockSoft)
	p.Bind(ctrl)
	sched.RunUntilIdle(500)
	if run := ctrl.Snapshot(); run.State != telemetry.StateHold || run.Phase != mission.PhaseInit {
		t.Fatalf("pilot acted during hold: %s phase %d", run.State, run.Phase)
	}
	if isDone(p) {
		t.Fatalf("pilot should still be waiting")
	}

	ctrl.Unlock()
	sched.RunUntilIdle(500)
	if run := ctrl.Snapshot(); run.State != telemetry.StateComplete {
		t.Fatalf("expected completion after unlock, got %s", run.State)
	}
	if !isDone(p) {
		t.Fatalf("pilot did not finish")
	}
}

func TestPilotFollowsReset(t *testing.T) {
	p, ctrl, sched := setup(t, drill(), Options{})
	p.Bind(ctrl)
	sched.Advance(10 * time.Second)
	ctrl.Reset(true)
	sched.RunUntilIdle(500)
	run := ctrl.Snapshot()
	if run.ID == "" || run.State != telemetry.StateComplete {
		t.Fatalf("expected the new run to complete, got %s", run.State)
	}
	if p.runID != run.ID {
		t.Fatalf("pilot tracking stale run %s", p.runID)
	}
}
