package mission

import (
	"launchops-sim/internal/fault"
	"launchops-sim/internal/telemetry"
)

// RunDiagnostics starts an operator diagnostics scan. Only one operator scan
// runs at a time; an administrator force may overlap it. A FAILED aggregate
// can only be cleared by an administrator force.
func (c *Controller) RunDiagnostics() {
	if !c.guard("Diagnostics") {
		return
	}
	if !c.requirePhase("Diagnostics", PhaseDiagnostics) {
		return
	}
	if c.scanning {
		c.warn("Diagnostics already in progress")
		return
	}
	if c.run.State == telemetry.StateFailed && !c.run.DiagnosticsComplete {
		c.fail("Diagnostics rejected: FAILED result requires administrator override")
		return
	}
	c.scanning = true
	c.info("Running system diagnostics")
	c.scan(nil, false, func() { c.scanning = false })
}

// scan starts one evaluator invocation over the catalogue. Each subsystem
// resolves after its own scan delay and is written into the run as it
// completes. Invocations do not cancel each other: per subsystem the last
// writer wins, and the system state is folded from those last writes.
func (c *Controller) scan(overrides map[string]fault.Result, admin bool, done func()) {
	c.scanSeq++
	seq := c.scanSeq
	c.inflight++
	c.run.DiagnosticsComplete = false
	for id := range c.run.Diagnostics {
		c.run.Diagnostics[id] = fault.Pending
	}
	c.commit()

	subsystems := fault.Catalog()
	var step func(i int)
	step = func(i int) {
		if i == len(subsystems) {
			c.inflight--
			if done != nil {
				done()
			}
			c.finishScan(seq, admin)
			return
		}
		sub := subsystems[i]
		c.after(fault.ScanDelay(c.rand, c.run.DelayMultiplier), func() {
			resolver := fault.Resolver{
				Faults:      c.run.FaultConfig,
				InjectFault: c.run.InjectFault,
				Rand:        c.rand,
			}
			res := resolver.Resolve(sub.ID, overrides)
			c.run.Diagnostics[sub.ID] = res.Result
			c.logResult(sub, res, admin)
			c.commit()
			step(i + 1)
		})
	}
	step(0)
}

func (c *Controller) logResult(sub fault.Subsystem, res fault.Resolution, admin bool) {
	switch res.Result {
	case fault.Failed:
		c.emit(telemetry.LevelError, admin, "%s: FAILED (%s)", sub.DisplayName, res.Rule)
	case fault.Degraded:
		c.emit(telemetry.LevelWarning, admin, "%s: DEGRADED (%s)", sub.DisplayName, res.Rule)
	default:
		c.emit(telemetry.LevelSuccess, admin, "%s: %s", sub.DisplayName, res.Result)
	}
}

// finishScan folds the run's diagnostics map, not the finishing invocation's
// own results, so a subsystem last written by another invocation still counts.
// While other invocations are in flight only a FAILED verdict is final.
func (c *Controller) finishScan(seq int, admin bool) {
	verdict := fault.Aggregate(c.run.Diagnostics)
	switch {
	case verdict == fault.Failed:
		c.setState(telemetry.StateFailed)
		c.run.DiagnosticsComplete = false
		c.emit(telemetry.LevelError, admin, "Diagnostics #%d: FAILED. Administrator override required", seq)
	case c.inflight > 0:
		c.emit(telemetry.LevelInfo, admin, "Diagnostics #%d finished; awaiting %d more invocation(s)", seq, c.inflight)
		return
	case verdict == fault.Degraded:
		c.setState(telemetry.StateDegraded)
		c.run.DiagnosticsComplete = true
		c.emit(telemetry.LevelWarning, admin, "Diagnostics #%d: DEGRADED. Proceed at your discretion", seq)
	default:
		c.setState(telemetry.StateReady)
		c.run.DiagnosticsComplete = true
		c.emit(telemetry.LevelSuccess, admin, "Diagnostics #%d: all systems nominal", seq)
	}
	c.commit()
}

// ProceedToAuthentication advances from diagnostics to dual authentication.
func (c *Controller) ProceedToAuthentication() {
	if !c.guard("Proceed") {
		return
	}
	if !c.requirePhase("Proceed", PhaseDiagnostics) {
		return
	}
	if c.inflight > 0 {
		c.warn("Diagnostics in progress")
		return
	}
	if !c.run.DiagnosticsComplete {
		if c.run.State == telemetry.StateFailed {
			c.fail("Cannot proceed: diagnostics FAILED")
		} else {
			c.fail("Cannot proceed: diagnostics not run")
		}
		return
	}
	c.run.Phase = PhaseAuthentication
	c.system("Phase 2: dual authentication. Both officers enter their codes")
	c.commit()
}
