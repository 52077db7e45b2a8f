package mission

import (
	"strings"

	"launchops-sim/internal/scenario"
	"launchops-sim/internal/telemetry"
)

func validSlot(slot int) bool { return slot == 0 || slot == 1 }

// VerifyCode checks an officer's code against the scenario's training codes.
// Either code may be entered in either slot. Failed attempts are not counted
// and never lock the slot out.
func (c *Controller) VerifyCode(slot int, code string) {
	if !c.guard("Authentication") {
		return
	}
	if !c.requirePhase("Authentication", PhaseAuthentication) {
		return
	}
	if !validSlot(slot) {
		c.fail("Invalid authentication slot %d", slot+1)
		return
	}
	if c.run.AuthVerified[slot] {
		c.info("Officer %d already verified", slot+1)
		return
	}
	if !c.scn.MatchCode(code) {
		c.fail("Officer %d authentication failed: invalid code", slot+1)
		return
	}
	c.run.AuthVerified[slot] = true
	c.success("Officer %d authentication verified", slot+1)
	if c.run.AuthVerified[0] && c.run.AuthVerified[1] {
		c.run.Phase = PhaseValidation
		c.system("Phase 3: command validation. Enter target coordinates")
	}
	c.commit()
}

// SubmitCommand validates the launch command and computes the trajectory.
// Coordinates are stored as entered and are not range-checked.
func (c *Controller) SubmitCommand(lat, lon string) {
	if !c.guard("Command validation") {
		return
	}
	if !c.requirePhase("Command validation", PhaseValidation) {
		return
	}
	if c.validating {
		c.warn("Command validation already in progress")
		return
	}
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		c.fail("Command rejected: latitude and longitude are required")
		return
	}
	c.run.TargetCoords = &scenario.Coords{Lat: lat, Lon: lon}
	c.validating = true
	c.info("Validating launch command for target %s, %s", lat, lon)
	c.after(c.scaled(validationDelay), func() {
		c.info("Command authenticated. Calculating trajectory")
		c.after(c.scaled(trajectoryDelay), func() {
			c.validating = false
			c.run.CommandValidated = true
			c.run.Phase = PhaseKeyAuth
			c.success("Trajectory locked")
			c.system("Phase 4: final authorization. Turn both launch keys")
			c.commit()
		})
	})
}

// TurnKey arms one launch key. The second key triggers authorization after a
// short settle delay; the keys may be turned any time apart.
func (c *Controller) TurnKey(slot int) {
	if !c.guard("Key turn") {
		return
	}
	if !c.requirePhase("Key turn", PhaseKeyAuth) {
		return
	}
	if !validSlot(slot) {
		c.fail("Invalid key slot %d", slot+1)
		return
	}
	if c.run.KeyTurn[slot] {
		c.info("Key %d already armed", slot+1)
		return
	}
	c.run.KeyTurn[slot] = true
	c.success("Key %d armed", slot+1)
	c.commit()
	if !c.run.KeyTurn[0] || !c.run.KeyTurn[1] || c.settling {
		return
	}
	c.settling = true
	c.after(c.scaled(keySettleDelay), func() {
		c.settling = false
		c.setState(telemetry.StateAuthorized)
		c.run.Phase = PhaseLaunch
		c.success("Launch authorized")
		c.system("Phase 5: launch. Awaiting launch command")
		c.commit()
	})
}
