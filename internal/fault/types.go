// Fault model types shared by scenarios, diagnostics and exports
package fault

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Subsystem is a static catalogue entry for one scanned subsystem.
type Subsystem struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Subsystem identifiers.
const (
	Reactor   = "reactor"
	Targeting = "targeting"
	Comms     = "comms"
	Guidance  = "guidance"
	Datalink  = "datalink"
	Power     = "power"
)

var catalog = []Subsystem{
	{ID: Reactor, DisplayName: "Reactor Core"},
	{ID: Targeting, DisplayName: "Targeting System"},
	{ID: Comms, DisplayName: "Communications"},
	{ID: Guidance, DisplayName: "Guidance Computer"},
	{ID: Datalink, DisplayName: "Data Link"},
	{ID: Power, DisplayName: "Power Distribution"},
}

// Catalog returns the fixed subsystems in scan order.
func Catalog() []Subsystem {
	out := make([]Subsystem, len(catalog))
	copy(out, catalog)
	return out
}

// Known reports whether id names a catalogue subsystem.
func Known(id string) bool {
	for _, s := range catalog {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Type is the kind of injected fault.
type Type string

const (
	HardFailure  Type = "HARD_FAILURE"
	Intermittent Type = "INTERMITTENT"
	SensorDrift  Type = "SENSOR_DRIFT"
	LogicError   Type = "LOGIC_ERROR"
)

// Valid reports whether t is one of the known fault types.
func (t Type) Valid() bool {
	switch t {
	case HardFailure, Intermittent, SensorDrift, LogicError:
		return true
	}
	return false
}

// Spec configures a fault for one subsystem.
type Spec struct {
	Type        Type           `yaml:"type" json:"type"`
	Probability float64        `yaml:"probability,omitempty" json:"probability,omitempty"`
	Parameters  map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Validate checks the type and probability range.
func (s Spec) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("unknown fault type %q", s.Type)
	}
	if s.Probability < 0 || s.Probability > 1 {
		return fmt.Errorf("probability %v out of range [0,1]", s.Probability)
	}
	return nil
}

// Result is the diagnostic outcome for one subsystem.
type Result string

const (
	Pending  Result = "PENDING"
	Pass     Result = "PASS"
	Degraded Result = "DEGRADED"
	Failed   Result = "FAILED"
)

// Valid reports whether r is a known result.
func (r Result) Valid() bool {
	switch r {
	case Pending, Pass, Degraded, Failed:
		return true
	}
	return false
}

// Source is the random draw used for fault rolls and scan pacing.
type Source interface {
	Float64() float64
}

// NewSource returns a seeded pseudo-random source.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewSeed generates a seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
