// Package mission implements the launch protocol state machine.
//
// A Controller owns one Run and is the only writer of its phase and state.
// It is not safe for concurrent use: every method, and every continuation it
// schedules, must run on the scheduler's loop goroutine.
package mission

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"launchops-sim/internal/fault"
	"launchops-sim/internal/scenario"
	"launchops-sim/internal/schedule"
	"launchops-sim/internal/scoring"
	"launchops-sim/internal/telemetry"
)

// Protocol pacing before the delay multiplier is applied.
const (
	bootDelay            = 1500 * time.Millisecond
	validationDelay      = 800 * time.Millisecond
	trajectoryDelay      = 1000 * time.Millisecond
	keySettleDelay       = 500 * time.Millisecond
	tickInterval         = time.Second
	debriefAfterComplete = 3000 * time.Millisecond
	debriefAfterAbort    = 1500 * time.Millisecond

	countdownStart = 10
)

// EventWriter receives every log event as it is appended.
type EventWriter interface {
	WriteEvent(telemetry.LogEvent) error
}

// StateWriter receives a state row after each committed transition.
// Event writers may optionally implement it.
type StateWriter interface {
	WriteState(telemetry.StateRow) error
}

// Options wires optional collaborators into a controller.
type Options struct {
	Rand    fault.Source
	Writer  EventWriter
	Records PerformanceRepository
	Logger  *slog.Logger
	NewID   func() string
}

// Controller drives one mission run through the protocol.
type Controller struct {
	scn    *scenario.Scenario
	sched  schedule.Scheduler
	rand   fault.Source
	writer EventWriter
	states StateWriter
	repo   PerformanceRepository
	logger *slog.Logger
	newID  func() string

	run    Run
	events []telemetry.LogEvent

	// tokens holds every outstanding continuation so reset can cancel them.
	tokens      map[schedule.Token]struct{}
	tick        schedule.Token
	ticking     bool
	scanning    bool
	inflight    int
	scanSeq     int
	validating  bool
	settling    bool
	held        telemetry.SystemState
	performance *scoring.Record
}

// NewController creates a controller for scn in the OFFLINE state.
func NewController(scn *scenario.Scenario, sched schedule.Scheduler, opts Options) *Controller {
	c := &Controller{
		scn:    scn,
		sched:  sched,
		rand:   opts.Rand,
		writer: opts.Writer,
		repo:   opts.Records,
		logger: opts.Logger,
		newID:  opts.NewID,
		tokens: make(map[schedule.Token]struct{}),
	}
	if c.rand == nil {
		seed, err := fault.NewSeed()
		if err != nil {
			seed = time.Now().UnixNano()
		}
		c.rand = fault.NewSource(seed)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	if sw, ok := c.writer.(StateWriter); ok {
		c.states = sw
	}
	c.run = newRun(c.newID(), scn)
	return c
}

// Scenario returns the scenario the controller was built for.
func (c *Controller) Scenario() *scenario.Scenario { return c.scn }

// Snapshot returns a read-only copy of the current run.
func (c *Controller) Snapshot() Run { return c.run.clone() }

// Events returns a copy of the run's event log.
func (c *Controller) Events() []telemetry.LogEvent {
	out := make([]telemetry.LogEvent, len(c.events))
	copy(out, c.events)
	return out
}

// Performance returns the debrief record once it has been computed.
func (c *Controller) Performance() (scoring.Record, bool) {
	if c.performance == nil {
		return scoring.Record{}, false
	}
	return *c.performance, true
}

func (c *Controller) emit(level telemetry.Level, admin bool, format string, args ...any) {
	ev := telemetry.LogEvent{
		RunID:     c.run.ID,
		Timestamp: c.sched.Now().UTC(),
		Level:     level,
		Message:   fmt.Sprintf(format, args...),
		IsAdmin:   admin,
	}
	c.events = append(c.events, ev)
	if c.writer != nil {
		if err := c.writer.WriteEvent(ev); err != nil {
			c.logger.Error("event write failed", "run_id", c.run.ID, "err", err)
		}
	}
}

func (c *Controller) info(format string, args ...any) {
	c.emit(telemetry.LevelInfo, false, format, args...)
}

func (c *Controller) success(format string, args ...any) {
	c.emit(telemetry.LevelSuccess, false, format, args...)
}

func (c *Controller) warn(format string, args ...any) {
	c.emit(telemetry.LevelWarning, false, format, args...)
}

func (c *Controller) fail(format string, args ...any) {
	c.emit(telemetry.LevelError, false, format, args...)
}

func (c *Controller) system(format string, args ...any) {
	c.emit(telemetry.LevelSystem, false, format, args...)
}

// commit publishes the state after a transition.
func (c *Controller) commit() {
	if c.states == nil {
		return
	}
	if err := c.states.WriteState(c.run.stateRow(c.sched.Now().UTC())); err != nil {
		c.logger.Error("state write failed", "run_id", c.run.ID, "err", err)
	}
}

// after schedules fn and tracks its token until it runs or is cancelled.
func (c *Controller) after(d time.Duration, fn func()) schedule.Token {
	var tok schedule.Token
	tok = c.sched.Schedule(d, func() {
		delete(c.tokens, tok)
		fn()
	})
	c.tokens[tok] = struct{}{}
	return tok
}

func (c *Controller) cancel(tok schedule.Token) {
	c.sched.Cancel(tok)
	delete(c.tokens, tok)
}

func (c *Controller) cancelAll() {
	for tok := range c.tokens {
		c.sched.Cancel(tok)
	}
	c.tokens = make(map[schedule.Token]struct{})
	c.ticking = false
	c.scanning = false
	c.inflight = 0
	c.validating = false
	c.settling = false
}

// setState records a new system state. While the administrator holds the
// mission the visible state stays HOLD and the outcome is restored on unlock.
func (c *Controller) setState(s telemetry.SystemState) {
	if c.run.Locked || c.run.SoftHold {
		c.held = s
		return
	}
	c.run.State = s
}

func (c *Controller) scaled(d time.Duration) time.Duration {
	return time.Duration(float64(d) * c.run.DelayMultiplier)
}

// guard rejects operator actions while the administrator holds the mission.
func (c *Controller) guard(action string) bool {
	if c.run.Locked {
		c.fail("%s rejected: system locked by administrator", action)
		return false
	}
	if c.run.SoftHold {
		c.warn("%s rejected: mission on administrative hold", action)
		return false
	}
	return true
}

// requirePhase logs a warning and returns false unless the run is in want.
func (c *Controller) requirePhase(action string, want Phase) bool {
	if c.run.Phase != want {
		c.warn("%s unavailable in phase %d (%s)", action, c.run.Phase, c.run.Phase)
		return false
	}
	return true
}

// Start begins the mission and boots the console.
func (c *Controller) Start() {
	if !c.guard("Start") {
		return
	}
	if c.run.State != telemetry.StateOffline {
		c.warn("Mission already started")
		return
	}
	c.setState(telemetry.StateInitializing)
	c.run.StartedAt = c.sched.Now().UTC()
	c.system("Mission %s initializing: scenario %s", c.run.ID, c.scn.ID)
	c.commit()
	c.after(c.scaled(bootDelay), func() {
		c.setState(telemetry.StateReady)
		c.run.Phase = PhaseDiagnostics
		c.success("Systems online. Run diagnostics to continue")
		c.commit()
	})
}

// ToggleChecklist flips a checklist item. It is bookkeeping, not a transition,
// so it is not subject to holds.
func (c *Controller) ToggleChecklist(id string) {
	for i := range c.run.Checklist {
		if c.run.Checklist[i].ID == id {
			c.run.Checklist[i].Checked = !c.run.Checklist[i].Checked
			state := "unchecked"
			if c.run.Checklist[i].Checked {
				state = "checked"
			}
			c.info("Checklist: %s %s", c.run.Checklist[i].Label, state)
			return
		}
	}
	c.warn("Unknown checklist item %q", id)
}
