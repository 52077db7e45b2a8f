package mission

import (
	"launchops-sim/internal/fault"
	"launchops-sim/internal/telemetry"
)

// Administrator operations bypass the lock and hold guards and are logged as
// admin events, which scoring ignores.

func (c *Controller) admin(level telemetry.Level, format string, args ...any) {
	c.emit(level, true, format, args...)
}

// Lock suspends operator actions. A soft hold can be lifted by unlock; a hard
// lock rejects every operator path.
func (c *Controller) Lock(mode LockMode) {
	if mode != LockSoft && mode != LockHard {
		c.admin(telemetry.LevelWarning, "Unknown lock mode %q", mode)
		return
	}
	if !c.run.Locked && !c.run.SoftHold {
		c.held = c.run.State
		c.run.State = telemetry.StateHold
	}
	switch mode {
	case LockHard:
		c.run.Locked = true
		c.admin(telemetry.LevelSystem, "System locked by administrator")
	default:
		c.run.SoftHold = true
		c.admin(telemetry.LevelSystem, "Mission placed on administrative hold")
	}
	c.commit()
}

// Unlock clears both the hold and the lock and restores the underlying state.
func (c *Controller) Unlock() {
	if !c.run.Locked && !c.run.SoftHold {
		c.admin(telemetry.LevelInfo, "Mission is not locked")
		return
	}
	c.run.Locked = false
	c.run.SoftHold = false
	if c.run.State == telemetry.StateHold {
		c.run.State = c.held
	}
	c.held = ""
	c.admin(telemetry.LevelSystem, "Administrative hold released")
	c.commit()
}

// ForceDiagnostics runs a fresh evaluator invocation in which overrides win
// over every other rule. Subsystems absent from overrides resolve normally.
func (c *Controller) ForceDiagnostics(overrides map[string]fault.Result) {
	if c.run.Phase != PhaseDiagnostics {
		c.admin(telemetry.LevelWarning, "Force diagnostics unavailable in phase %d (%s)", c.run.Phase, c.run.Phase)
		return
	}
	forced := make(map[string]fault.Result, len(overrides))
	for id, res := range overrides {
		if !fault.Known(id) {
			c.admin(telemetry.LevelWarning, "Force diagnostics rejected: unknown subsystem %q", id)
			return
		}
		if !res.Valid() || res == fault.Pending {
			c.admin(telemetry.LevelWarning, "Force diagnostics rejected: invalid result %q for %s", res, id)
			return
		}
		forced[id] = res
	}
	c.admin(telemetry.LevelSystem, "Diagnostics forced by administrator (%d overrides)", len(forced))
	c.scan(forced, true, nil)
}

// Reset cancels every outstanding continuation, then reinitializes the run
// under a new id. It is permitted from any state, locked or not.
func (c *Controller) Reset(isAdminInitiated bool) {
	c.cancelAll()
	c.held = ""
	c.performance = nil
	c.events = nil
	c.run = newRun(c.newID(), c.scn)
	if isAdminInitiated {
		c.admin(telemetry.LevelSystem, "Mission reset by administrator")
	} else {
		c.system("Mission reset")
	}
	c.commit()
}

// InjectFault configures a fault for the next diagnostics run.
func (c *Controller) InjectFault(id string, spec fault.Spec) {
	if !fault.Known(id) {
		c.admin(telemetry.LevelWarning, "Inject fault rejected: unknown subsystem %q", id)
		return
	}
	if err := spec.Validate(); err != nil {
		c.admin(telemetry.LevelWarning, "Inject fault rejected: %v", err)
		return
	}
	c.run.FaultConfig[id] = spec
	c.admin(telemetry.LevelSystem, "Fault %s injected into %s", spec.Type, id)
}

// ClearFault removes a configured fault.
func (c *Controller) ClearFault(id string) {
	if _, ok := c.run.FaultConfig[id]; !ok {
		c.admin(telemetry.LevelInfo, "No fault configured for %q", id)
		return
	}
	delete(c.run.FaultConfig, id)
	c.admin(telemetry.LevelSystem, "Fault cleared from %s", id)
}

// ToggleLegacyFault flips the single comms fault switch.
func (c *Controller) ToggleLegacyFault() {
	c.run.InjectFault = !c.run.InjectFault
	state := "disabled"
	if c.run.InjectFault {
		state = "enabled"
	}
	c.admin(telemetry.LevelSystem, "Comms fault injection %s", state)
}

// SetDelayMultiplier changes the pacing of delays scheduled from now on.
func (c *Controller) SetDelayMultiplier(m float64) {
	if m <= 0 {
		c.admin(telemetry.LevelWarning, "Delay multiplier must be positive, got %g", m)
		return
	}
	c.run.DelayMultiplier = m
	c.admin(telemetry.LevelSystem, "Delay multiplier set to %g", m)
}
