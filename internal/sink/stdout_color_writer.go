// ColorStdoutWriter prints human-friendly, colorized mission output to STDOUT.
package sink

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"launchops-sim/internal/scenario"
	"launchops-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var levelColors = map[telemetry.Level]string{
	telemetry.LevelInfo:    colorCyan,
	telemetry.LevelSuccess: colorGreen,
	telemetry.LevelWarning: colorYellow,
	telemetry.LevelError:   colorRed,
	telemetry.LevelSystem:  colorBlue,
}

// ColorStdoutWriter prints events and state rows using ANSI colors.
type ColorStdoutWriter struct {
	scn  *scenario.Scenario
	out  io.Writer
	once sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(scn *scenario.Scenario) *ColorStdoutWriter {
	return &ColorStdoutWriter{scn: scn, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.scn == nil {
		return
	}
	fmt.Fprintln(w.out, "Scenario:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", w.scn.ID)
	if w.scn.Name != "" {
		fmt.Fprintf(tw, "Name:\t%s\n", w.scn.Name)
	}
	if w.scn.Difficulty != "" {
		fmt.Fprintf(tw, "Difficulty:\t%s\n", w.scn.Difficulty)
	}
	fmt.Fprintf(tw, "Delay Multiplier:\t%.2f\n", w.scn.Multiplier())
	fmt.Fprintf(tw, "Legacy Comms Fault:\t%t\n", w.scn.InjectFault)
	tw.Flush()

	if len(w.scn.Faults) > 0 {
		fmt.Fprintln(w.out, "\nConfigured Faults:")
		tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Subsystem\tType\tProbability\n")
		ids := make([]string, 0, len(w.scn.Faults))
		for id := range w.scn.Faults {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			spec := w.scn.Faults[id]
			fmt.Fprintf(tw, "%s%s%s\t%s\t%.2f\n", colorMagenta, id, colorReset, spec.Type, spec.Probability)
		}
		tw.Flush()
	}
	fmt.Fprintln(w.out)
}

// WriteEvent outputs a single log event in colorized format.
func (w *ColorStdoutWriter) WriteEvent(ev telemetry.LogEvent) error {
	w.once.Do(w.printOverview)
	col, ok := levelColors[ev.Level]
	if !ok {
		col = colorReset
	}
	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, ev.Timestamp.Format(time.RFC3339), colorReset)
	if ev.IsAdmin {
		fmt.Fprintf(w.out, "%sADMIN%s ", colorMagenta, colorReset)
	}
	fmt.Fprintf(w.out, "%s%-7s%s %s\n", col, strings.ToUpper(string(ev.Level)), colorReset, ev.Message)
	return nil
}

// WriteState prints a compact state line.
func (w *ColorStdoutWriter) WriteState(row telemetry.StateRow) error {
	w.once.Do(w.printOverview)
	stateColor := colorGreen
	switch row.State {
	case telemetry.StateFailed, telemetry.StateAborted:
		stateColor = colorRed
	case telemetry.StateDegraded, telemetry.StateHold:
		stateColor = colorYellow
	case telemetry.StateCountdown:
		stateColor = colorMagenta
	}
	fmt.Fprintf(w.out, "%s[%s]%s %sSTATE%s phase=%d state=%s%s%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, colorReset, row.Phase, stateColor, row.State, colorReset)
	if row.State == telemetry.StateCountdown {
		fmt.Fprintf(w.out, " T-%d", row.Countdown)
	}
	if row.Locked {
		fmt.Fprintf(w.out, " %slocked%s", colorRed, colorReset)
	} else if row.SoftHold {
		fmt.Fprintf(w.out, " %shold%s", colorYellow, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}
