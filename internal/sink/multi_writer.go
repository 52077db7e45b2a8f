package sink

import (
	"errors"

	"launchops-sim/internal/telemetry"
)

// MultiWriter fans events and state rows out to multiple writers. One failing
// writer does not stop delivery to the others.
type MultiWriter struct {
	writers []EventWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...EventWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// WriteEvent sends an event to all writers.
func (mw *MultiWriter) WriteEvent(ev telemetry.LogEvent) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteEvent(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteState sends a state row to every writer that supports it.
func (mw *MultiWriter) WriteState(row telemetry.StateRow) error {
	var errs []error
	for _, w := range mw.writers {
		sw, ok := w.(StateWriter)
		if !ok {
			continue
		}
		if err := sw.WriteState(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
