package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"launchops-sim/internal/mission"
	"launchops-sim/internal/scenario"
	"launchops-sim/internal/schedule"
)

func TestLoadConfigPrecedence(t *testing.T) {
	t.Setenv("LAUNCHOPS_SCENARIO", "flaky-comms")
	t.Setenv("LAUNCHOPS_ADMIN_ADDR", ":9090")
	oldPath, oldSchema, oldFlags := simConfigPath, simSchemaPath, *simFlags
	defer func() { simConfigPath, simSchemaPath, *simFlags = oldPath, oldSchema, oldFlags }()
	simConfigPath = "../../config/launchops.yaml"
	simSchemaPath = "../../schemas/launchops.cue"

	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&simFlags.Scenario, "scenario", "", "")
	if err := cmd.Flags().Set("scenario", "reactor-scram"); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Scenario != "reactor-scram" {
		t.Fatalf("flag should win over env, got %q", cfg.Scenario)
	}
	if cfg.AdminAddr != ":9090" {
		t.Fatalf("env should win over file, got %q", cfg.AdminAddr)
	}
	if cfg.Database != "launchops.db" {
		t.Fatalf("file value lost, got %q", cfg.Database)
	}
}

func TestLoadConfigRejectsBadOutput(t *testing.T) {
	oldPath, oldFlags := simConfigPath, *simFlags
	defer func() { simConfigPath, *simFlags = oldPath, oldFlags }()
	simConfigPath = ""

	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&simFlags.Output, "output", "", "")
	if err := cmd.Flags().Set("output", "hologram"); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(cmd); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestWriteDebrief(t *testing.T) {
	sched := schedule.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	scn := &scenario.Scenario{ID: "drill", TrainingCodes: []string{"A", "B"}, DelayMultiplier: 1}
	ctrl := mission.NewController(scn, sched, mission.Options{})
	ctrl.Start()
	path := filepath.Join(t.TempDir(), "debrief.json")
	if err := writeDebrief(sched, ctrl, path); err != nil {
		t.Fatalf("writeDebrief: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) == 0 || b[0] != '{' {
		t.Fatalf("expected JSON debrief, got %q", b)
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")
	logger, closeLog, err := newLogger(path, true)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("hello", "k", "v")
	closeLog()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) == 0 {
		t.Fatalf("expected JSON log line")
	}
}
