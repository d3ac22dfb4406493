package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GRIDSIM_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields of c from GRIDSIM_* variables found through lookup.
// A nil lookup reads the process environment.
func (c *GridConfig) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"NUM_AGENTS", &c.NumAgents},
		{"SIZE", &c.Size},
		{"OBS_RADIUS", &c.ObsRadius},
		{"MAX_EPISODE_STEPS", &c.MaxEpisodeSteps},
	}
	for _, f := range ints {
		v, ok := lookup(EnvPrefix + f.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, f.key, err)
		}
		*f.dst = n
	}

	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		c.Seed = &seed
	}
	if v, ok := lookup(EnvPrefix + "DENSITY"); ok {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sDENSITY: %w", EnvPrefix, err)
		}
		c.Density = d
	}
	if v, ok := lookup(EnvPrefix + "INTEGRATION"); ok {
		c.Integration = Integration(v)
	}
	return nil
}
