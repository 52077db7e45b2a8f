package fault

import "time"

// Rule identifies which precedence step produced a resolution.
type Rule int

const (
	RuleOverride Rule = iota + 1
	RuleConfigured
	RuleLegacy
	RuleRandom
)

func (r Rule) String() string {
	switch r {
	case RuleOverride:
		return "override"
	case RuleConfigured:
		return "configured"
	case RuleLegacy:
		return "legacy"
	case RuleRandom:
		return "random"
	}
	return "unknown"
}

// Resolution is the outcome for one subsystem and the rule that decided it.
type Resolution struct {
	Result Result
	Rule   Rule
}

const (
	randomFailAbove    = 0.92
	randomDegradeAbove = 0.85

	scanBase   = 600 * time.Millisecond
	scanJitter = 400 * time.Millisecond
)

// Resolver applies the fault precedence rules to a subsystem.
type Resolver struct {
	Faults      map[string]Spec
	InjectFault bool
	Rand        Source
}

// Resolve returns the diagnostic result for id. Overrides win over configured
// faults, configured faults over the legacy comms toggle, and the toggle over
// the random fallback.
func (r Resolver) Resolve(id string, overrides map[string]Result) Resolution {
	if res, ok := overrides[id]; ok {
		return Resolution{Result: res, Rule: RuleOverride}
	}
	if spec, ok := r.Faults[id]; ok {
		switch spec.Type {
		case HardFailure:
			return Resolution{Result: Failed, Rule: RuleConfigured}
		case Intermittent:
			if r.Rand.Float64() < spec.Probability {
				return Resolution{Result: Failed, Rule: RuleConfigured}
			}
			return Resolution{Result: Pass, Rule: RuleConfigured}
		case SensorDrift, LogicError:
			return Resolution{Result: Degraded, Rule: RuleConfigured}
		}
	}
	if r.InjectFault && id == Comms {
		return Resolution{Result: Failed, Rule: RuleLegacy}
	}
	draw := r.Rand.Float64()
	switch {
	case draw > randomFailAbove:
		return Resolution{Result: Failed, Rule: RuleRandom}
	case draw > randomDegradeAbove:
		return Resolution{Result: Degraded, Rule: RuleRandom}
	}
	return Resolution{Result: Pass, Rule: RuleRandom}
}

// Aggregate folds subsystem results into an overall verdict. Any FAILED wins,
// then any DEGRADED, otherwise PASS.
func Aggregate(results map[string]Result) Result {
	degraded := false
	for _, res := range results {
		switch res {
		case Failed:
			return Failed
		case Degraded:
			degraded = true
		}
	}
	if degraded {
		return Degraded
	}
	return Pass
}

// ScanDelay returns the pacing delay before a subsystem resolves.
func ScanDelay(src Source, multiplier float64) time.Duration {
	d := scanBase + time.Duration(src.Float64()*float64(scanJitter))
	return time.Duration(float64(d) * multiplier)
}
