package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/boristopalov/gridsim/pkg/core"
)

// ExperimentConfig describes a batch of rollouts driven by a scripted policy.
type ExperimentConfig struct {
	Name     string     `yaml:"name"`
	Episodes int        `yaml:"episodes"`
	Workers  int        `yaml:"workers"`
	Policy   string     `yaml:"policy"`
	Grid     GridConfig `yaml:"grid"`
	Logging  LogConfig  `yaml:"logging"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	StatsPath   string `yaml:"stats_path"`
	MetricsPath string `yaml:"metrics_path"`
}

// DefaultExperiment returns a single-worker, ten-episode greedy run.
func DefaultExperiment() ExperimentConfig {
	return ExperimentConfig{
		Name:     "rollout",
		Episodes: 10,
		Workers:  1,
		Policy:   "greedy",
		Grid:     Default(),
		Logging:  LogConfig{Level: "info"},
	}
}

func (e ExperimentConfig) Validate() error {
	if e.Episodes <= 0 {
		return fmt.Errorf("episodes must be positive, got %d", e.Episodes)
	}
	if e.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", e.Workers)
	}
	if !e.Grid.Integration.Known() {
		return fmt.Errorf("integration %q: %w", e.Grid.Integration, core.ErrNotSupported)
	}
	return e.Grid.ValidateGrid()
}

// LoadExperiment reads an ExperimentConfig from a YAML file on top of the defaults.
func LoadExperiment(path string) (ExperimentConfig, error) {
	cfg := DefaultExperiment()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read experiment %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse experiment %s: %w", path, err)
	}
	return cfg, nil
}
