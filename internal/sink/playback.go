package sink

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"launchops-sim/internal/telemetry"
)

// ReplayLog replays events from r to writer. A speed >0 accelerates playback.
// If speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer EventWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var ev telemetry.LogEvent
		if err := dec.Decode(&ev); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := ev.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.WriteEvent(ev); err != nil {
			return err
		}
		prev = ev.Timestamp
	}
}

// ReplayLogFile opens a file and replays its events.
func ReplayLogFile(path string, writer EventWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}

// Collector keeps every event it receives.
type Collector struct {
	Events []telemetry.LogEvent
}

// WriteEvent appends ev.
func (c *Collector) WriteEvent(ev telemetry.LogEvent) error {
	c.Events = append(c.Events, ev)
	return nil
}

// ReadLogFile loads all events from a JSONL event log.
func ReadLogFile(path string) ([]telemetry.LogEvent, error) {
	c := &Collector{}
	if err := ReplayLogFile(path, c, 0); err != nil {
		return nil, err
	}
	return c.Events, nil
}
