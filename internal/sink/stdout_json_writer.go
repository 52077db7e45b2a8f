package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"launchops-sim/internal/telemetry"
)

// JSONStdoutWriter prints events and state rows as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// WriteEvent outputs a log event in JSON format.
func (w *JSONStdoutWriter) WriteEvent(ev telemetry.LogEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteState outputs a state row in JSON format.
func (w *JSONStdoutWriter) WriteState(row telemetry.StateRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}
