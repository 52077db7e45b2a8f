package sink

import (
	"encoding/json"
	"os"

	"launchops-sim/internal/telemetry"
)

// FileWriter writes events and state rows to JSONL files.
type FileWriter struct {
	eventFile *os.File
	stateFile *os.File
	eventEnc  *json.Encoder
	stateEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. statePath may be empty to skip state rows.
func NewFileWriter(eventPath, statePath string) (*FileWriter, error) {
	ef, err := os.Create(eventPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{eventFile: ef, eventEnc: json.NewEncoder(ef)}
	if statePath != "" {
		sf, err := os.Create(statePath)
		if err != nil {
			ef.Close()
			return nil, err
		}
		fw.stateFile = sf
		fw.stateEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// WriteEvent logs a single event.
func (f *FileWriter) WriteEvent(ev telemetry.LogEvent) error {
	return f.eventEnc.Encode(ev)
}

// WriteState logs a state row, if enabled.
func (f *FileWriter) WriteState(row telemetry.StateRow) error {
	if f.stateEnc == nil {
		return nil
	}
	return f.stateEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.eventFile != nil {
		if e := f.eventFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.stateFile != nil {
		if e := f.stateFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
