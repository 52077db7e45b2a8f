package console

import (
	"bytes"
	"context"
	"errors"
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

func newController(t *testing.T) (*mission.Controller, *schedule.Manual) {
	t.Helper()
	sched := schedule.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	scn := &scenario.Scenario{
		ID:              "drill",
		TrainingCodes:   []string{"ALPHA-7", "BRAVO-9"},
		DelayMultiplier: 1,
		Checklist:       []scenario.ChecklistEntry{{ID: "power", Label: "Power verified"}},
	}
	return mission.NewController(scn, sched, mission.Options{Rand: constRand(0.5)}), sched
}

func mustDispatch(t *testing.T, c *mission.Controller, line string) {
	t.Helper()
	if err := Dispatch(c, line); err != nil {
		t.Fatalf("dispatch %q: %v", line, err)
	}
}

func TestDispatchDrivesHappyPath(t *testing.T) {
	c, sched := newController(t)
	mustDispatch(t, c, "start")
	sched.Advance(time.Minute)
	mustDispatch(t, c, "diag")
	sched.Advance(time.Minute)
	mustDispatch(t, c, "proceed")
	mustDispatch(t, c, "verify 1 alpha-7")
	mustDispatch(t, c, "verify 2 BRAVO-9")
	mustDispatch(t, c, "target 38.8977 -77.0365")
	sched.Advance(time.Minute)
	mustDispatch(t, c, "key 1")
	mustDispatch(t, c, "key 2")
	sched.Advance(time.Minute)
	mustDispatch(t, c, "check power")
	mustDispatch(t, c, "LAUNCH")
	sched.Advance(time.Minute)

	run := c.Snapshot()
	if run.State != telemetry.StateComplete || !run.DebriefReady {
		t.Fatalf("expected completed run with debrief, got %s debrief=%v", run.State, run.DebriefReady)
	}
	if run.TargetCoords == nil || run.TargetCoords.Lat != "38.8977" {
		t.Fatalf("target not stored: %+v", run.TargetCoords)
	}
	if !run.Checklist[0].Checked {
		t.Fatalf("checklist item not toggled")
	}
}

func TestDispatchAdminCommands(t *testing.T) {
	c, sched := newController(t)
	mustDispatch(t, c, "lock hard")
	if run := c.Snapshot(); !run.Locked {
		t.Fatalf("expected hard lock")
	}
	mustDispatch(t, c, "unlock")
	mustDispatch(t, c, "fault Comms hard_failure")
	if spec := c.Snapshot().FaultConfig[fault.Comms]; spec.Type != fault.HardFailure {
		t.Fatalf("fault not injected: %+v", spec)
	}
	mustDispatch(t, c, "clear comms")
	if len(c.Snapshot().FaultConfig) != 0 {
		t.Fatalf("fault not cleared")
	}
	mustDispatch(t, c, "legacy")
	if !c.Snapshot().InjectFault {
		t.Fatalf("legacy switch not toggled")
	}
	mustDispatch(t, c, "delay 0.5")
	if m := c.Snapshot().DelayMultiplier; m != 0.5 {
		t.Fatalf("multiplier not set: %v", m)
	}

	mustDispatch(t, c, "start")
	sched.Advance(time.Minute)
	mustDispatch(t, c, "force reactor=failed")
	sched.Advance(time.Minute)
	if res := c.Snapshot().Diagnostics[fault.Reactor]; res != fault.Failed {
		t.Fatalf("expected forced FAILED, got %s", res)
	}

	before := c.Snapshot().ID
	mustDispatch(t, c, "reset")
	if c.Snapshot().ID == before {
		t.Fatalf("reset did not issue a new run")
	}
}

func TestDispatchRejectsMalformedInput(t *testing.T) {
	c, _ := newController(t)
	cases := []string{
		"verify 3 ALPHA-7",
		"verify 1",
		"key x",
		"target 1.0",
		"delay fast",
		"fault comms intermittent often",
		"force reactor",
		"check",
	}
	for _, line := range cases {
		if err := Dispatch(c, line); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
	if err := Dispatch(c, "selfdestruct"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
	if err := Dispatch(c, "   "); err != nil {
		t.Fatalf("blank line should be ignored: %v", err)
	}
	if n := len(c.Events()); n != 0 {
		t.Fatalf("malformed input must not reach the controller, got %d events", n)
	}
}

func TestRunLines(t *testing.T) {
	var got []string
	submit := func(line string) error {
		got = append(got, line)
		if line == "bogus" {
			return ErrUnknownCommand
		}
		return nil
	}
	in := strings.NewReader("start\n\n?\nbogus\ndiag\nquit\nlaunch\n")
	var out bytes.Buffer
	if err := RunLines(context.Background(), in, &out, submit); err != nil {
		t.Fatalf("run lines: %v", err)
	}
	if strings.Join(got, ",") != "start,bogus,diag" {
		t.Fatalf("unexpected submissions %v", got)
	}
	if !strings.Contains(out.String(), "operator:") || !strings.Contains(out.String(), "type ? for help") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
