package integrations

import (
	"fmt"

	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/environment"
	"github.com/boristopalov/gridsim/pkg/spaces"
)

// GymEnv is the single-agent convention: scalar action in, scalar reward and
// done flag out.
type GymEnv struct {
	*session
}

func observationSpace(s *session) spaces.Box {
	shape := environment.ObsShape(s.cfg)
	return spaces.Box{Shape: shape[:], Low: 0, High: 1}
}

func (g *GymEnv) ObservationSpace() spaces.Box { return observationSpace(g.session) }
func (g *GymEnv) ActionSpace() spaces.Discrete { return spaces.Discrete{N: core.NumActions} }

// SampleAction draws a uniform legal action from the adapter's own generator.
func (g *GymEnv) SampleAction() core.Action {
	return core.Action(g.ActionSpace().Sample(g.rng))
}

func (g *GymEnv) Reset(seed *int64) ([]float32, error) {
	obs, err := g.engine.Reset(seed)
	if err != nil {
		return nil, err
	}
	return obs[0], nil
}

func (g *GymEnv) Step(action core.Action) ([]float32, float64, bool, core.Info, error) {
	if err := g.ensureStarted(); err != nil {
		return nil, 0, false, core.Info{}, err
	}
	res, err := g.engine.Step([]core.Action{action})
	if err != nil {
		return nil, 0, false, core.Info{}, fmt.Errorf("gym step: %w", err)
	}
	return res.Observations[0], res.Rewards[0], res.Dones[0], res.Info, nil
}
