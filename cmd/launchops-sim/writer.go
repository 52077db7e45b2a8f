package main

import (
	"errors"
	"log/slog"
	"os"

	"golang.org/x/term"

	"launchops-sim/internal/config"
	"launchops-sim/internal/console"
	"launchops-sim/internal/scenario"
	"launchops-sim/internal/sink"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// stdoutIsTerminal reports whether STDOUT is attached to a terminal.
func stdoutIsTerminal() bool { return isTerminal(os.Stdout) }

// resolveOutput turns auto into a concrete mode: the console on a terminal,
// JSON lines otherwise.
func resolveOutput(mode string, tty bool) string {
	if mode != config.OutputAuto {
		return mode
	}
	if tty {
		return config.OutputTUI
	}
	return config.OutputJSON
}

// writers is the sink chain for one simulate run.
type writers struct {
	writer  sink.EventWriter
	console *console.TUIWriter
	closers []func() error
}

// Close releases every sink in reverse order of creation.
func (w *writers) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newWriters builds the output for mode plus the optional JSONL files and
// GreptimeDB sink named in cfg. submit receives console commands in TUI mode.
func newWriters(cfg *config.Config, scn *scenario.Scenario, mode string, submit console.SubmitFunc, logger *slog.Logger) (*writers, error) {
	out := &writers{}
	var base sink.EventWriter
	switch mode {
	case config.OutputTUI:
		tw := console.NewTUIWriter(scn, submit)
		out.console = tw
		out.closers = append(out.closers, tw.Close)
		base = tw
	case config.OutputText:
		base = sink.NewColorStdoutWriter(scn)
	default:
		base = sink.NewJSONStdoutWriter()
	}

	ws := []sink.EventWriter{base}
	if cfg.EventLog != "" {
		fw, err := sink.NewFileWriter(cfg.EventLog, cfg.StateLog)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		out.closers = append(out.closers, fw.Close)
		ws = append(ws, fw)
	}
	if cfg.GreptimeDB.Endpoint != "" {
		gw, err := sink.NewGreptimeDBWriter(cfg.GreptimeDB.Endpoint, cfg.GreptimeDB.Database, logger)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		ws = append(ws, gw)
	}
	if len(ws) == 1 {
		out.writer = base
		return out, nil
	}
	out.writer = sink.NewMultiWriter(ws...)
	return out, nil
}
