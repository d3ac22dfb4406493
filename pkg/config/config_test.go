package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/gridsim/pkg/core"
)

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, Default().Validate())
	})

	t.Run("gym with several agents", func(t *testing.T) {
		cfg := Default()
		cfg.Integration = IntegrationGym
		cfg.NumAgents = 2
		assert.ErrorIs(t, cfg.Validate(), core.ErrConfiguration)
	})

	t.Run("unset integration with several agents", func(t *testing.T) {
		cfg := Default()
		cfg.NumAgents = 3
		assert.ErrorIs(t, cfg.Validate(), core.ErrConfiguration)
	})

	t.Run("unknown integration", func(t *testing.T) {
		cfg := Default()
		cfg.Integration = "Ray"
		assert.ErrorIs(t, cfg.Validate(), core.ErrNotSupported)
	})

	t.Run("out of range parameters", func(t *testing.T) {
		mutations := map[string]func(*GridConfig){
			"agents":  func(c *GridConfig) { c.NumAgents = 0 },
			"size":    func(c *GridConfig) { c.Size = 0 },
			"density": func(c *GridConfig) { c.Density = 1 },
			"radius":  func(c *GridConfig) { c.ObsRadius = -1 },
			"steps":   func(c *GridConfig) { c.MaxEpisodeSteps = 0 },
			"crowded": func(c *GridConfig) {
				c.Integration = IntegrationPyMARL
				c.Size = 2
				c.NumAgents = 3
			},
		}
		for name, mutate := range mutations {
			cfg := Default()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), core.ErrConfiguration, name)
		}
	})

	t.Run("multi-agent integrations accept many agents", func(t *testing.T) {
		for _, in := range []Integration{IntegrationSampleFactory, IntegrationPyMARL, IntegrationPettingZoo} {
			cfg := Default()
			cfg.Integration = in
			cfg.NumAgents = 4
			assert.NoError(t, cfg.Validate(), string(in))
		}
	})
}

func TestObsWidth(t *testing.T) {
	cfg := Default()
	cfg.ObsRadius = 3
	assert.Equal(t, 7, cfg.ObsWidth())
	cfg.ObsRadius = 0
	assert.Equal(t, 1, cfg.ObsWidth())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	body := "seed: 7\nnum_agents: 4\nobs_radius: 3\nmax_episode_steps: 16\nintegration: PyMARL\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(7), *cfg.Seed)
	assert.Equal(t, 4, cfg.NumAgents)
	assert.Equal(t, 3, cfg.ObsRadius)
	assert.Equal(t, 16, cfg.MaxEpisodeSteps)
	assert.Equal(t, IntegrationPyMARL, cfg.Integration)
	// untouched fields keep their defaults
	assert.Equal(t, DefaultSize, cfg.Size)
	assert.Equal(t, DefaultDensity, cfg.Density)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GRIDSIM_SEED":        "42",
		"GRIDSIM_NUM_AGENTS":  "8",
		"GRIDSIM_DENSITY":     "0.1",
		"GRIDSIM_INTEGRATION": "PettingZoo",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(42), *cfg.Seed)
	assert.Equal(t, 8, cfg.NumAgents)
	assert.Equal(t, 0.1, cfg.Density)
	assert.Equal(t, IntegrationPettingZoo, cfg.Integration)
	assert.Equal(t, DefaultSize, cfg.Size)

	env["GRIDSIM_SIZE"] = "big"
	assert.Error(t, cfg.ApplyEnv(lookup))
}

func TestLoadExperiment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	body := "name: smoke\nepisodes: 3\nworkers: 2\ngrid:\n  num_agents: 2\n  integration: SampleFactory\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	exp, err := LoadExperiment(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke", exp.Name)
	assert.Equal(t, 3, exp.Episodes)
	assert.Equal(t, 2, exp.Workers)
	assert.Equal(t, "greedy", exp.Policy)
	assert.Equal(t, 2, exp.Grid.NumAgents)
	assert.Equal(t, DefaultObsRadius, exp.Grid.ObsRadius)
	require.NoError(t, exp.Validate())
}

func TestExperimentRejectsUnknownIntegration(t *testing.T) {
	exp := DefaultExperiment()
	exp.Grid.Integration = "MadeUp"
	assert.ErrorIs(t, exp.Validate(), core.ErrNotSupported)

	exp.Grid.Integration = IntegrationPettingZoo
	exp.Grid.NumAgents = 3
	assert.NoError(t, exp.Validate())
}
