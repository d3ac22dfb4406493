// Package flatten turns an episode snapshot into fixed-size numeric buffers for
// centralized learners: one observation row per agent and one global state
// vector. All sizes depend on the GridConfig alone, so callers can allocate
// before the first step.
package flatten

import (
	"gonum.org/v1/gonum/mat"

	"github.com/boristopalov/gridsim/pkg/config"
	"github.com/boristopalov/gridsim/pkg/environment"
)

// ObsSize is the column count of the observation matrix.
func ObsSize(cfg config.GridConfig) int {
	return environment.ObsLen(cfg)
}

// GlobalExtra is the length of the global tail of the state vector: the agent
// occupancy map followed by the normalized step index and remaining budget.
func GlobalExtra(cfg config.GridConfig) int {
	return cfg.Size*cfg.Size + 2
}

// StateSize is num_agents*obs_size + global_extra.
func StateSize(cfg config.GridConfig) int {
	return cfg.NumAgents*ObsSize(cfg) + GlobalExtra(cfg)
}

// Observations returns a NumAgents x ObsSize matrix, one row per agent.
func Observations(snap environment.Snapshot) *mat.Dense {
	cfg := snap.Config
	size := ObsSize(cfg)
	data := make([]float64, cfg.NumAgents*size)
	for i := 0; i < cfg.NumAgents; i++ {
		copyInto(data[i*size:(i+1)*size], snap.Observation(i))
	}
	return mat.NewDense(cfg.NumAgents, size, data)
}

// State returns the global state vector of length StateSize.
func State(snap environment.Snapshot) *mat.VecDense {
	cfg := snap.Config
	obsSize := ObsSize(cfg)
	data := make([]float64, StateSize(cfg))

	for i := 0; i < cfg.NumAgents; i++ {
		copyInto(data[i*obsSize:(i+1)*obsSize], snap.Observation(i))
	}

	tail := data[cfg.NumAgents*obsSize:]
	if snap.World != nil {
		copyInto(tail[:cfg.Size*cfg.Size], snap.Occupancy())
	}
	stepIdx, remaining := budget(snap.Step, cfg.MaxEpisodeSteps)
	tail[len(tail)-2] = stepIdx
	tail[len(tail)-1] = remaining

	return mat.NewVecDense(len(data), data)
}

// budget normalizes the step counter and the steps left to [0,1].
func budget(step, limit int) (float64, float64) {
	if step > limit {
		step = limit
	}
	done := float64(step) / float64(limit)
	return done, 1 - done
}

func copyInto(dst []float64, src []float32) {
	for i, v := range src {
		dst[i] = float64(v)
	}
}
