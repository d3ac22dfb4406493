package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/boristopalov/gridsim/pkg/core"
)

// Integration selects the external calling convention an environment is exposed under.
type Integration string

const (
	IntegrationNone          Integration = ""
	IntegrationGym           Integration = "gym"
	IntegrationSampleFactory Integration = "SampleFactory"
	IntegrationPyMARL        Integration = "PyMARL"
	IntegrationPettingZoo    Integration = "PettingZoo"
	IntegrationRLlib         Integration = "rllib"
)

// Known reports whether the selector names an integration this module recognizes,
// implemented or not.
func (i Integration) Known() bool {
	switch i {
	case IntegrationNone, IntegrationGym, IntegrationSampleFactory,
		IntegrationPyMARL, IntegrationPettingZoo, IntegrationRLlib:
		return true
	}
	return false
}

// SingleAgent reports whether the integration only admits one agent.
func (i Integration) SingleAgent() bool {
	return i == IntegrationNone || i == IntegrationGym
}

const (
	DefaultNumAgents       = 1
	DefaultSize            = 8
	DefaultDensity         = 0.3
	DefaultObsRadius       = 5
	DefaultMaxEpisodeSteps = 64
)

// GridConfig is the immutable parameter bundle of one environment.
type GridConfig struct {
	// Seed is nil for an unseeded environment.
	Seed            *int64      `yaml:"seed"`
	NumAgents       int         `yaml:"num_agents"`
	Size            int         `yaml:"size"`
	Density         float64     `yaml:"density"`
	ObsRadius       int         `yaml:"obs_radius"`
	MaxEpisodeSteps int         `yaml:"max_episode_steps"`
	Integration     Integration `yaml:"integration"`
}

// Default returns a GridConfig populated with the stock parameters.
func Default() GridConfig {
	return GridConfig{
		NumAgents:       DefaultNumAgents,
		Size:            DefaultSize,
		Density:         DefaultDensity,
		ObsRadius:       DefaultObsRadius,
		MaxEpisodeSteps: DefaultMaxEpisodeSteps,
	}
}

// Seed is a convenience for filling GridConfig.Seed from a literal.
func Seed(v int64) *int64 {
	return &v
}

// ObsWidth is the side length of an agent's square observation window.
func (c GridConfig) ObsWidth() int {
	return 2*c.ObsRadius + 1
}

// Validate checks parameter ranges and integration legality.
func (c GridConfig) Validate() error {
	if !c.Integration.Known() {
		return fmt.Errorf("integration %q: %w", c.Integration, core.ErrNotSupported)
	}
	if err := c.ValidateGrid(); err != nil {
		return err
	}
	if c.Integration.SingleAgent() && c.NumAgents != 1 {
		return fmt.Errorf("integration %q is single-agent, got num_agents=%d: %w",
			c.Integration, c.NumAgents, core.ErrConfiguration)
	}
	return nil
}

// ValidateGrid checks only the simulation parameters, leaving the integration
// selector to the dispatcher.
func (c GridConfig) ValidateGrid() error {
	if c.NumAgents <= 0 {
		return fmt.Errorf("num_agents must be positive, got %d: %w", c.NumAgents, core.ErrConfiguration)
	}
	if c.Size <= 0 {
		return fmt.Errorf("size must be positive, got %d: %w", c.Size, core.ErrConfiguration)
	}
	if c.Density < 0 || c.Density >= 1 {
		return fmt.Errorf("density must be in [0,1), got %v: %w", c.Density, core.ErrConfiguration)
	}
	if c.ObsRadius < 0 {
		return fmt.Errorf("obs_radius must be non-negative, got %d: %w", c.ObsRadius, core.ErrConfiguration)
	}
	if c.MaxEpisodeSteps <= 0 {
		return fmt.Errorf("max_episode_steps must be positive, got %d: %w", c.MaxEpisodeSteps, core.ErrConfiguration)
	}
	// every agent needs its own start and its own goal
	if c.Size*c.Size < 2*c.NumAgents {
		return fmt.Errorf("a %dx%d grid cannot hold %d agents with distinct goals: %w",
			c.Size, c.Size, c.NumAgents, core.ErrConfiguration)
	}
	return nil
}

// Load reads a GridConfig from a YAML file. Fields missing from the file keep
// their defaults.
func Load(path string) (GridConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
