// Package metrics derives per-episode success and collision statistics and
// exports them to Prometheus.
package metrics

import (
	"github.com/boristopalov/gridsim/pkg/core"
)

// Collector accumulates the EpisodeRecord of one episode.
type Collector struct {
	numAgents  int
	steps      int
	collisions int
	successes  int
	truncated  bool

	snapshot *core.EpisodeStats
}

func NewCollector(numAgents int) *Collector {
	return &Collector{numAgents: numAgents}
}

// Reset clears the record for a new episode.
func (c *Collector) Reset() {
	*c = Collector{numAgents: c.numAgents}
}

// RecordStep adds one timestep with the number of conflict rejections and the
// number of agents that reached their goal during it.
func (c *Collector) RecordStep(collisions, completed int) {
	if c.snapshot != nil {
		return
	}
	c.steps++
	c.collisions += collisions
	c.successes += completed
}

func (c *Collector) Steps() int      { return c.steps }
func (c *Collector) Collisions() int { return c.collisions }
func (c *Collector) Successes() int  { return c.successes }

// Finalize freezes the record and returns its snapshot. Later calls return the
// same snapshot regardless of the truncated argument.
func (c *Collector) Finalize(truncated bool) core.EpisodeStats {
	if c.snapshot == nil {
		c.truncated = truncated
		s := c.compute()
		c.snapshot = &s
	}
	return *c.snapshot
}

// Snapshot returns the frozen snapshot, or nil while the episode is running.
func (c *Collector) Snapshot() *core.EpisodeStats {
	if c.snapshot == nil {
		return nil
	}
	s := *c.snapshot
	return &s
}

func (c *Collector) compute() core.EpisodeStats {
	return core.EpisodeStats{
		ISR:        ISR(c.successes, c.numAgents),
		CSR:        CSR(c.collisions, c.numAgents, c.steps),
		Steps:      c.steps,
		Collisions: c.collisions,
		Successes:  c.successes,
		Truncated:  c.truncated,
	}
}

// ISR is the fraction of agents that reached their goal.
func ISR(successes, numAgents int) float64 {
	if numAgents <= 0 {
		return 0
	}
	return clamp01(float64(successes) / float64(numAgents))
}

// CSR is the fraction of agent-steps that ended in a conflict rejection.
func CSR(collisions, numAgents, steps int) float64 {
	if numAgents <= 0 || steps <= 0 {
		return 0
	}
	return clamp01(float64(collisions) / float64(numAgents*steps))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
