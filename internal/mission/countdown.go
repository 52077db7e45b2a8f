package mission

import (
	"context"
	"time"

	"launchops-sim/internal/scoring"
	"launchops-sim/internal/telemetry"
)

const persistTimeout = 5 * time.Second

// Launch starts the countdown from an authorized launch phase.
func (c *Controller) Launch() {
	if !c.guard("Launch") {
		return
	}
	if !c.requirePhase("Launch", PhaseLaunch) {
		return
	}
	if c.run.State != telemetry.StateAuthorized {
		c.warn("Launch unavailable in state %s", c.run.State)
		return
	}
	c.setState(telemetry.StateCountdown)
	c.run.Countdown = countdownStart
	c.ticking = true
	c.system("Launch sequence initiated. T-%d", c.run.Countdown)
	c.commit()
	c.tick = c.after(c.scaled(tickInterval), c.onTick)
}

func (c *Controller) onTick() {
	if !c.ticking {
		return
	}
	c.run.Countdown--
	switch c.run.Countdown {
	case 5, 3, 1:
		c.system("T-%d", c.run.Countdown)
	}
	if c.run.Countdown > 0 {
		c.commit()
		c.tick = c.after(c.scaled(tickInterval), c.onTick)
		return
	}
	c.ticking = false
	c.setState(telemetry.StateComplete)
	c.run.CompletedAt = c.sched.Now().UTC()
	c.success("Launch complete")
	c.commit()
	c.after(c.scaled(debriefAfterComplete), c.debriefReady)
}

// Abort stops an active countdown. A running countdown can be aborted even
// while the administrator holds the mission.
func (c *Controller) Abort() {
	if !c.ticking {
		if c.guard("Abort") {
			c.warn("Abort unavailable: no countdown in progress")
		}
		return
	}
	c.cancel(c.tick)
	c.ticking = false
	c.setState(telemetry.StateAborted)
	c.run.CompletedAt = c.sched.Now().UTC()
	c.system("Launch aborted at T-%d", c.run.Countdown)
	c.commit()
	c.after(c.scaled(debriefAfterAbort), c.debriefReady)
}

// completionTime is the run's wall time from start to its terminal state.
func (c *Controller) completionTime() time.Duration {
	if c.run.StartedAt.IsZero() {
		return 0
	}
	end := c.run.CompletedAt
	if end.IsZero() {
		end = c.sched.Now().UTC()
	}
	return end.Sub(c.run.StartedAt)
}

// terminalState is the state the run ended in, looking through a hold.
func (c *Controller) terminalState() telemetry.SystemState {
	if c.run.State == telemetry.StateHold {
		return c.held
	}
	return c.run.State
}

func (c *Controller) debriefReady() {
	rec := scoring.Score(c.events, c.completionTime().Milliseconds(), c.terminalState(), c.run.Checklist)
	c.performance = &rec
	c.run.DebriefReady = true
	c.system("Debrief ready: score %d, grade %s", rec.OverallScore, rec.Grade)
	c.commit()
	if c.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	entry := Entry{
		RunID:            c.run.ID,
		ScenarioID:       c.run.ScenarioID,
		TerminalState:    c.terminalState(),
		CompletionTimeMs: c.completionTime().Milliseconds(),
		Record:           rec,
		CreatedAt:        c.sched.Now().UTC(),
	}
	if err := c.repo.Create(ctx, entry); err != nil {
		c.logger.Error("persist performance record", "run_id", c.run.ID, "err", err)
	}
}
