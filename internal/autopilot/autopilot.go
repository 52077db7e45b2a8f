// Package autopilot plays the operator role for demos and soak runs.
//
// The pilot watches committed state rows and, after a pacing delay, performs
// the next operator action for the run's current phase. It reads the run only
// from inside scheduled continuations, so it shares the mission loop and
// needs no locking.
package autopilot

import (
	"log/slog"
	"sync"
	"time"

	"launchops-sim/internal/fault"
	"launchops-sim/internal/mission"
	"launchops-sim/internal/scenario"
	"launchops-sim/internal/schedule"
	"launchops-sim/internal/telemetry"
)

// DefaultPace is the think time between operator actions.
const DefaultPace = 750 * time.Millisecond

var fallbackTarget = scenario.Coords{Lat: "38.8977", Lon: "-77.0365"}

// Options tune the pilot.
type Options struct {
	Pace   time.Duration
	Logger *slog.Logger
}

// Pilot drives a controller through the launch sequence.
type Pilot struct {
	sched  schedule.Scheduler
	ctrl   *mission.Controller
	pace   time.Duration
	logger *slog.Logger

	pending bool
	runID   string
	scanned bool
	blocked bool

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a pilot. Bind attaches it to a controller.
func New(sched schedule.Scheduler, opts Options) *Pilot {
	if opts.Pace <= 0 {
		opts.Pace = DefaultPace
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pilot{
		sched:  sched,
		pace:   opts.Pace,
		logger: opts.Logger,
		done:   make(chan struct{}),
	}
}

// Bind attaches the pilot to ctrl and schedules its first action. It must run
// on the mission loop.
func (p *Pilot) Bind(ctrl *mission.Controller) {
	p.ctrl = ctrl
	p.wake()
}

// Done is closed once the debrief is ready.
func (p *Pilot) Done() <-chan struct{} { return p.done }

// WriteState implements sink.StateWriter; each committed row wakes the pilot.
func (p *Pilot) WriteState(telemetry.StateRow) error {
	p.wake()
	return nil
}

// WriteEvent implements sink.EventWriter. Events carry nothing the pilot acts on.
func (p *Pilot) WriteEvent(telemetry.LogEvent) error { return nil }

func (p *Pilot) wake() {
	if p.ctrl == nil || p.pending || p.finished() {
		return
	}
	p.pending = true
	p.sched.Schedule(p.pace, p.step)
}

func (p *Pilot) finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Pilot) finish() {
	p.doneOnce.Do(func() { close(p.done) })
}

func (p *Pilot) step() {
	p.pending = false
	run := p.ctrl.Snapshot()
	if run.ID != p.runID {
		p.runID = run.ID
		p.scanned = false
		p.blocked = false
	}
	if run.Locked || run.SoftHold {
		return
	}
	if run.DebriefReady {
		p.logger.Info("autopilot finished", "run_id", run.ID, "state", run.State)
		p.finish()
		return
	}
	switch run.Phase {
	case mission.PhaseInit:
		if run.State == telemetry.StateOffline {
			p.ctrl.Start()
		}
	case mission.PhaseDiagnostics:
		p.diagnostics(run)
	case mission.PhaseAuthentication:
		codes := p.ctrl.Scenario().TrainingCodes
		for slot, ok := range run.AuthVerified {
			if !ok && len(codes) > 0 {
				p.ctrl.VerifyCode(slot, codes[slot%len(codes)])
				return
			}
		}
	case mission.PhaseValidation:
		if run.TargetCoords == nil {
			target := fallbackTarget
			if t := p.ctrl.Scenario().TargetCoords; t != nil {
				target = *t
			}
			p.ctrl.SubmitCommand(target.Lat, target.Lon)
		}
	case mission.PhaseKeyAuth:
		for slot, armed := range run.KeyTurn {
			if !armed {
				p.ctrl.TurnKey(slot)
				return
			}
		}
	case mission.PhaseLaunch:
		if run.State != telemetry.StateAuthorized {
			return
		}
		for _, item := range run.Checklist {
			if !item.Checked {
				p.ctrl.ToggleChecklist(item.ID)
			}
		}
		p.ctrl.Launch()
	}
}

func (p *Pilot) diagnostics(run mission.Run) {
	pending := false
	for _, res := range run.Diagnostics {
		if res == fault.Pending {
			pending = true
			break
		}
	}
	switch {
	case pending && !p.scanned:
		p.scanned = true
		p.ctrl.RunDiagnostics()
	case pending:
		// scan in flight
	case run.DiagnosticsComplete:
		p.blocked = false
		p.ctrl.ProceedToAuthentication()
	case run.State == telemetry.StateFailed && !p.blocked:
		// the next committed row after an administrator force wakes the pilot
		p.blocked = true
		p.logger.Warn("autopilot waiting: diagnostics FAILED, administrator override required", "run_id", run.ID)
	}
}
