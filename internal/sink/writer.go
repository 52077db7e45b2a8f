// Package sink delivers mission log events and state rows to outputs.
package sink

import "launchops-sim/internal/telemetry"

// EventWriter handles mission log events.
type EventWriter interface {
	WriteEvent(telemetry.LogEvent) error
}

// StateWriter handles state rows. Event writers may optionally implement it.
type StateWriter interface {
	WriteState(telemetry.StateRow) error
}
