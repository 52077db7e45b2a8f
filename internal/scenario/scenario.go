package scenario

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"launchops-sim/internal/fault"
	"launchops-sim/internal/schema"
	"launchops-sim/internal/telemetry"
)

//go:embed scenario.cue
var schemaSrc []byte

// Scenario is the training configuration consumed by the mission controller.
type Scenario struct {
	ID              string                `yaml:"id" json:"id"`
	Name            string                `yaml:"name,omitempty" json:"name,omitempty"`
	Description     string                `yaml:"description,omitempty" json:"description,omitempty"`
	Difficulty      string                `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	TrainingCodes   []string              `yaml:"training_codes" json:"training_codes"`
	TargetCoords    *Coords               `yaml:"target_coords,omitempty" json:"target_coords,omitempty"`
	DelayMultiplier float64               `yaml:"delay_multiplier,omitempty" json:"delay_multiplier,omitempty"`
	InjectFault     bool                  `yaml:"inject_fault,omitempty" json:"inject_fault,omitempty"`
	Faults          map[string]fault.Spec `yaml:"faults,omitempty" json:"faults,omitempty"`
	Checklist       []ChecklistEntry      `yaml:"checklist,omitempty" json:"checklist,omitempty"`
}

// Coords is a target position as entered by the operator. Values are kept as
// text and never range-checked.
type Coords struct {
	Lat string `yaml:"lat" json:"lat"`
	Lon string `yaml:"lon" json:"lon"`
}

// ChecklistEntry declares one checklist item.
type ChecklistEntry struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Load reads a YAML scenario from disk and validates it.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(path, b)
}

// Parse validates a YAML scenario against the embedded CUE schema and decodes it.
func Parse(name string, b []byte) (*Scenario, error) {
	if err := schema.Validate(name, b, schemaSrc, "#Scenario"); err != nil {
		return nil, fmt.Errorf("validate scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Resolve returns a built-in scenario by id, or loads ref as a file path.
func Resolve(ref string) (*Scenario, error) {
	if s, ok := BuiltIn()[ref]; ok {
		return &s, nil
	}
	if strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") {
		return Load(ref)
	}
	return nil, fmt.Errorf("unknown scenario %q", ref)
}

// Validate checks invariants the controller relies on.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario id is required")
	}
	if len(s.TrainingCodes) != 2 {
		return fmt.Errorf("scenario %s: expected 2 training codes, got %d", s.ID, len(s.TrainingCodes))
	}
	if s.DelayMultiplier < 0 {
		return fmt.Errorf("scenario %s: delay multiplier must be positive", s.ID)
	}
	for id, spec := range s.Faults {
		if !fault.Known(id) {
			return fmt.Errorf("scenario %s: unknown subsystem %q", s.ID, id)
		}
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("scenario %s: subsystem %s: %w", s.ID, id, err)
		}
	}
	return nil
}

// Multiplier returns the delay multiplier, defaulting to 1.
func (s *Scenario) Multiplier() float64 {
	if s.DelayMultiplier <= 0 {
		return 1
	}
	return s.DelayMultiplier
}

// FaultConfig returns a copy of the configured faults.
func (s *Scenario) FaultConfig() map[string]fault.Spec {
	out := make(map[string]fault.Spec, len(s.Faults))
	for id, spec := range s.Faults {
		out[id] = spec
	}
	return out
}

// NewChecklist returns unchecked runtime items for the scenario checklist.
func (s *Scenario) NewChecklist() []telemetry.ChecklistItem {
	if len(s.Checklist) == 0 {
		return nil
	}
	items := make([]telemetry.ChecklistItem, len(s.Checklist))
	for i, e := range s.Checklist {
		items[i] = telemetry.ChecklistItem{ID: e.ID, Label: e.Label}
	}
	return items
}

// MatchCode reports whether code matches any training code, ignoring case and
// surrounding whitespace.
func (s *Scenario) MatchCode(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for _, c := range s.TrainingCodes {
		if strings.EqualFold(strings.TrimSpace(c), code) {
			return true
		}
	}
	return false
}
