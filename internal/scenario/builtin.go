package scenario

import "launchops-sim/internal/fault"

var standardChecklist = []ChecklistEntry{
	{ID: "power-bus", Label: "Confirm primary power bus nominal"},
	{ID: "comms-check", Label: "Confirm secure comms link with command"},
	{ID: "auth-codes", Label: "Retrieve sealed authentication codes"},
	{ID: "target-verify", Label: "Cross-check target coordinates against order"},
	{ID: "key-custody", Label: "Confirm launch key custody"},
}

// BuiltIn returns predefined training scenarios keyed by id.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"standard": {
			ID:              "standard",
			Name:            "Standard Launch",
			Description:     "Nominal launch sequence with no injected faults. Random fallback rolls still apply.",
			Difficulty:      "basic",
			TrainingCodes:   []string{"ALPHA-7-TANGO", "BRAVO-3-ECHO"},
			TargetCoords:    &Coords{Lat: "38.8977", Lon: "-77.0365"},
			DelayMultiplier: 1,
			Checklist:       standardChecklist,
		},
		"reactor-scram": {
			ID:              "reactor-scram",
			Name:            "Reactor Scram",
			Description:     "The reactor core fails diagnostics. Request an administrator override before proceeding.",
			Difficulty:      "intermediate",
			TrainingCodes:   []string{"CHARLIE-5-KILO", "DELTA-8-LIMA"},
			TargetCoords:    &Coords{Lat: "51.5072", Lon: "-0.1276"},
			DelayMultiplier: 1,
			Faults: map[string]fault.Spec{
				fault.Reactor: {Type: fault.HardFailure},
			},
			Checklist: standardChecklist,
		},
		"flaky-comms": {
			ID:              "flaky-comms",
			Name:            "Flaky Comms",
			Description:     "Intermittent communications faults and a drifting guidance sensor. Rerun diagnostics until the link holds.",
			Difficulty:      "intermediate",
			TrainingCodes:   []string{"ECHO-1-MIKE", "FOXTROT-6-NOVEMBER"},
			TargetCoords:    &Coords{Lat: "35.6762", Lon: "139.6503"},
			DelayMultiplier: 1,
			Faults: map[string]fault.Spec{
				fault.Comms:    {Type: fault.Intermittent, Probability: 0.5},
				fault.Guidance: {Type: fault.SensorDrift, Parameters: map[string]any{"drift_deg": 0.4}},
			},
			Checklist: standardChecklist,
		},
		"cascade": {
			ID:              "cascade",
			Name:            "Cascade Failure",
			Description:     "Multiple degraded subsystems and a logic fault in the data link under accelerated pacing.",
			Difficulty:      "advanced",
			TrainingCodes:   []string{"GOLF-4-OSCAR", "HOTEL-2-PAPA"},
			DelayMultiplier: 0.5,
			InjectFault:     true,
			Faults: map[string]fault.Spec{
				fault.Datalink: {Type: fault.LogicError},
				fault.Power:    {Type: fault.SensorDrift},
				fault.Comms:    {Type: fault.Intermittent, Probability: 0.8},
			},
			Checklist: standardChecklist,
		},
	}
}
