// YAML config loader with CUE validation and environment overrides
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"launchops-sim/internal/schema"
)

// Output modes for mission events.
const (
	OutputAuto = "auto"
	OutputJSON = "json"
	OutputText = "text"
	OutputTUI  = "tui"
)

// Greptime configures the optional GreptimeDB sink.
type Greptime struct {
	Endpoint string `yaml:"endpoint"`
	Database string `yaml:"database"`
}

// Config is the runtime configuration of the simulator.
type Config struct {
	Scenario        string   `yaml:"scenario"`
	DelayMultiplier float64  `yaml:"delay_multiplier"`
	Seed            int64    `yaml:"seed"`
	Output          string   `yaml:"output"`
	AdminAddr       string   `yaml:"admin_addr"`
	Database        string   `yaml:"database"`
	LogFile         string   `yaml:"log_file"`
	LogLevel        string   `yaml:"log_level"`
	EventLog        string   `yaml:"event_log"`
	StateLog        string   `yaml:"state_log"`
	Autopilot       bool     `yaml:"autopilot"`
	GreptimeDB      Greptime `yaml:"greptimedb"`
}

// Env holds overrides read from the environment.
type Env struct {
	Scenario         string  `env:"LAUNCHOPS_SCENARIO"`
	DelayMultiplier  float64 `env:"LAUNCHOPS_DELAY_MULTIPLIER"`
	AdminAddr        string  `env:"LAUNCHOPS_ADMIN_ADDR"`
	Database         string  `env:"LAUNCHOPS_DB"`
	LogLevel         string  `env:"LAUNCHOPS_LOG_LEVEL"`
	GreptimeEndpoint string  `env:"GREPTIMEDB_ENDPOINT"`
	GreptimeDatabase string  `env:"GREPTIMEDB_DATABASE" envDefault:"public"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Scenario:        "standard",
		DelayMultiplier: 1,
		Output:          OutputAuto,
		LogLevel:        "info",
		GreptimeDB:      Greptime{Database: "public"},
	}
}

// Load loads a YAML config and validates it against the #Config definition
// of a CUE schema. Unset fields keep their defaults.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if err := schema.ValidateFiles(configPath, cueSchemaPath, "#Config"); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv overlays non-empty environment values onto c.
func (c *Config) ApplyEnv(e Env) {
	if e.Scenario != "" {
		c.Scenario = e.Scenario
	}
	if e.DelayMultiplier > 0 {
		c.DelayMultiplier = e.DelayMultiplier
	}
	if e.AdminAddr != "" {
		c.AdminAddr = e.AdminAddr
	}
	if e.Database != "" {
		c.Database = e.Database
	}
	if e.LogLevel != "" {
		c.LogLevel = e.LogLevel
	}
	if e.GreptimeEndpoint != "" {
		c.GreptimeDB.Endpoint = e.GreptimeEndpoint
	}
	if e.GreptimeDatabase != "" && (c.GreptimeDB.Database == "" || c.GreptimeDB.Database == "public") {
		c.GreptimeDB.Database = e.GreptimeDatabase
	}
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Scenario) == "" {
		return fmt.Errorf("scenario is required")
	}
	if c.DelayMultiplier <= 0 {
		return fmt.Errorf("delay multiplier must be positive")
	}
	switch c.Output {
	case OutputAuto, OutputJSON, OutputText, OutputTUI:
	default:
		return fmt.Errorf("unknown output mode %q", c.Output)
	}
	return nil
}
