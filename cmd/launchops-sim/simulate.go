package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"launchops-sim/internal/admin"
	"launchops-sim/internal/autopilot"
	"launchops-sim/internal/config"
	"launchops-sim/internal/console"
	"launchops-sim/internal/fault"
	"launchops-sim/internal/logging"
	"launchops-sim/internal/mission"
	"launchops-sim/internal/scenario"
	"launchops-sim/internal/schedule"
	"launchops-sim/internal/sink"
	"launchops-sim/internal/store"
)

var (
	simConfigPath string
	simSchemaPath string
	simDebriefOut string
	simFlags      = config.Default()
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a launch-protocol training mission",
	Long: "simulate runs one mission on a real-time loop. The operator drives it from the console, " +
		"from typed commands on STDIN, or via the autopilot; instructors use the admin HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := logging.SetLevel(cfg.LogLevel); err != nil {
			return err
		}
		mode := resolveOutput(cfg.Output, stdoutIsTerminal())

		logger, closeLog, err := newLogger(cfg.LogFile, mode == config.OutputTUI)
		if err != nil {
			return err
		}
		defer closeLog()
		slog.SetDefault(logger)

		scn, err := scenario.Resolve(cfg.Scenario)
		if err != nil {
			return err
		}
		if cfg.DelayMultiplier != 1 {
			scn.DelayMultiplier = cfg.DelayMultiplier
		}

		seed := cfg.Seed
		if seed == 0 {
			if seed, err = fault.NewSeed(); err != nil {
				return err
			}
		}
		logger.Info("mission configured", "scenario", scn.ID, "seed", seed, "output", mode, "autopilot", cfg.Autopilot)

		var repo mission.PerformanceRepository
		if cfg.Database != "" {
			st, err := store.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer st.Close()
			repo = st
		}

		loop := schedule.NewLoop()
		loopCtx, stopLoop := context.WithCancel(context.Background())
		defer stopLoop()
		go loop.Run(loopCtx)

		var ctrl *mission.Controller
		submit := func(line string) error {
			var err error
			loop.Do(func() { err = console.Dispatch(ctrl, line) })
			return err
		}

		out, err := newWriters(cfg, scn, mode, submit, logger)
		if err != nil {
			return err
		}
		defer out.Close()

		writer := out.writer
		var pilot *autopilot.Pilot
		if cfg.Autopilot {
			pilot = autopilot.New(loop, autopilot.Options{Logger: logger})
			writer = sink.NewMultiWriter(writer, pilot)
		}

		loop.Do(func() {
			ctrl = mission.NewController(scn, loop, mission.Options{
				Rand:    fault.NewSource(seed),
				Writer:  writer,
				Records: repo,
				Logger:  logger,
			})
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.AdminAddr != "" {
			srv := admin.NewServer(ctrl, loop, logger)
			go func() {
				if err := srv.Run(ctx, cfg.AdminAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("admin server failed", "addr", cfg.AdminAddr, "err", err)
				}
			}()
		}

		switch {
		case pilot != nil:
			loop.Do(func() { pilot.Bind(ctrl) })
			select {
			case <-pilot.Done():
			case <-ctx.Done():
			}
		case out.console != nil:
			select {
			case <-out.console.Done():
			case <-ctx.Done():
			}
		default:
			linesDone := make(chan error, 1)
			go func() { linesDone <- console.RunLines(ctx, os.Stdin, os.Stderr, submit) }()
			interactive := isTerminal(os.Stdin)
			select {
			case err := <-linesDone:
				if err != nil {
					logger.Error("read commands", "err", err)
				}
				if !interactive {
					<-ctx.Done()
				}
			case <-ctx.Done():
			}
		}

		if simDebriefOut != "" {
			if err := writeDebrief(loop, ctrl, simDebriefOut); err != nil {
				logger.Error("write debrief", "path", simDebriefOut, "err", err)
			}
		}
		stopLoop()
		logger.Info("mission simulation stopped")
		return nil
	},
}

// loadConfig reads the config file, then applies environment and flag
// overrides in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if simConfigPath != "" {
		loaded, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	var env config.Env
	if err := config.ParseEnv(&env); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(env)

	flags := cmd.Flags()
	if flags.Changed("scenario") {
		cfg.Scenario = simFlags.Scenario
	}
	if flags.Changed("delay") {
		cfg.DelayMultiplier = simFlags.DelayMultiplier
	}
	if flags.Changed("seed") {
		cfg.Seed = simFlags.Seed
	}
	if flags.Changed("output") {
		cfg.Output = simFlags.Output
	}
	if flags.Changed("admin-addr") {
		cfg.AdminAddr = simFlags.AdminAddr
	}
	if flags.Changed("db") {
		cfg.Database = simFlags.Database
	}
	if flags.Changed("log-file") {
		cfg.LogFile = simFlags.LogFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = simFlags.LogLevel
	}
	if flags.Changed("event-log") {
		cfg.EventLog = simFlags.EventLog
	}
	if flags.Changed("state-log") {
		cfg.StateLog = simFlags.StateLog
	}
	if flags.Changed("autopilot") {
		cfg.Autopilot = simFlags.Autopilot
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// newLogger logs text to STDERR and, with a log file, JSON to that file. The
// console owns the terminal, so in TUI mode only the file is written.
func newLogger(path string, quiet bool) (*slog.Logger, func(), error) {
	if path == "" {
		if quiet {
			return logging.NewFanout(nil), func() {}, nil
		}
		return logging.New(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := logging.NewFanout(os.Stderr, f)
	if quiet {
		logger = logging.NewFanout(nil, f)
	}
	return logger, func() { _ = f.Close() }, nil
}

// writeDebrief exports the current run's debrief from the loop.
func writeDebrief(exec schedule.Executor, ctrl *mission.Controller, path string) error {
	var (
		b   []byte
		err error
	)
	exec.Do(func() { b, err = ctrl.ExportDebrief() })
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simConfigPath, "config", "config/launchops.yaml", "Path to runtime configuration YAML (empty for defaults)")
	f.StringVar(&simSchemaPath, "schema", "schemas/launchops.cue", "Path to CUE schema file")
	f.StringVar(&simFlags.Scenario, "scenario", simFlags.Scenario, "Built-in scenario id or path to a scenario YAML")
	f.Float64Var(&simFlags.DelayMultiplier, "delay", simFlags.DelayMultiplier, "Delay multiplier applied to every mission delay")
	f.Int64Var(&simFlags.Seed, "seed", 0, "Random seed for fault rolls and scan pacing (0 picks one)")
	f.StringVar(&simFlags.Output, "output", simFlags.Output, "Output mode: auto, json, text or tui")
	f.StringVar(&simFlags.AdminAddr, "admin-addr", "", "Admin HTTP listen address (empty disables)")
	f.StringVar(&simFlags.Database, "db", "", "SQLite file for performance records (empty disables)")
	f.StringVar(&simFlags.LogFile, "log-file", "", "Also write process logs as JSON to this file")
	f.StringVar(&simFlags.LogLevel, "log-level", simFlags.LogLevel, "Process log level: debug, info, warn or error")
	f.StringVar(&simFlags.EventLog, "event-log", "", "Export mission events to this JSONL file")
	f.StringVar(&simFlags.StateLog, "state-log", "", "Export state rows to this JSONL file (needs --event-log)")
	f.BoolVar(&simFlags.Autopilot, "autopilot", false, "Let the autopilot fly the mission")
	f.StringVar(&simDebriefOut, "debrief", "", "Write the debrief JSON to this file on exit")
}
