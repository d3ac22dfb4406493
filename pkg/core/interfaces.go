package core

import (
	"context"
)

// Environment is the canonical multi-agent stepping protocol every adapter restates.
type Environment interface {
	// Reset starts a new episode and returns one observation per agent
	Reset(seed *int64) ([][]float32, error)
	// Step advances the environment one synchronized timestep
	Step(actions []Action) (StepResult, error)
	// NumAgents returns the fixed agent count
	NumAgents() int
}

// StepResult is what one synchronized timestep produces.
type StepResult struct {
	Observations [][]float32
	Rewards      []float64
	Dones        []bool
	Info         Info
}

// AllDone reports whether every agent's done flag is set.
func (r StepResult) AllDone() bool {
	for _, d := range r.Dones {
		if !d {
			return false
		}
	}
	return true
}

// Info carries the running tallies of an episode and, once the episode has
// terminated, its final statistics.
type Info struct {
	EpisodeID  string
	Step       int
	Collisions int
	Successes  int
	Truncated  bool
	// EpisodeStats is nil until the episode terminates.
	EpisodeStats *EpisodeStats
}

// EpisodeStats is the finalized metrics snapshot of one episode.
type EpisodeStats struct {
	ISR        float64 `json:"ISR" yaml:"isr"`
	CSR        float64 `json:"CSR" yaml:"csr"`
	Steps      int     `json:"steps" yaml:"steps"`
	Collisions int     `json:"collisions" yaml:"collisions"`
	Successes  int     `json:"successes" yaml:"successes"`
	Truncated  bool    `json:"truncated" yaml:"truncated"`
}

// Experiment coordinates repeated rollouts
type Experiment interface {
	// Run executes the experiment according to configuration
	Run(ctx context.Context) error
	// GetStatus returns current experiment status
	GetStatus() ExperimentStatus
}
