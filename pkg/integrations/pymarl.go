package integrations

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/flatten"
)

// EnvInfo describes the fixed dimensions a centralized learner allocates for.
type EnvInfo struct {
	StateShape   int `json:"state_shape"`
	ObsShape     int `json:"obs_shape"`
	NActions     int `json:"n_actions"`
	NAgents      int `json:"n_agents"`
	EpisodeLimit int `json:"episode_limit"`
}

// PyMARLEnv is the centralized-training convention: a shared team reward, an
// observation matrix and a global state vector. It never resets on its own.
type PyMARLEnv struct {
	*session
}

func (p *PyMARLEnv) GetObsSize() int      { return flatten.ObsSize(p.cfg) }
func (p *PyMARLEnv) GetStateSize() int    { return flatten.StateSize(p.cfg) }
func (p *PyMARLEnv) GetTotalActions() int { return core.NumActions }
func (p *PyMARLEnv) EpisodeLimit() int    { return p.cfg.MaxEpisodeSteps }

func (p *PyMARLEnv) GetEnvInfo() EnvInfo {
	return EnvInfo{
		StateShape:   p.GetStateSize(),
		ObsShape:     p.GetObsSize(),
		NActions:     p.GetTotalActions(),
		NAgents:      p.cfg.NumAgents,
		EpisodeLimit: p.EpisodeLimit(),
	}
}

// GetObs returns the NumAgents x ObsSize observation matrix.
func (p *PyMARLEnv) GetObs() (*mat.Dense, error) {
	if err := p.ensureStarted(); err != nil {
		return nil, err
	}
	return flatten.Observations(p.engine.Snapshot()), nil
}

func (p *PyMARLEnv) GetObsAgent(i int) ([]float64, error) {
	if i < 0 || i >= p.cfg.NumAgents {
		return nil, fmt.Errorf("agent %d of %d: %w", i, p.cfg.NumAgents, core.ErrActionShape)
	}
	obs, err := p.GetObs()
	if err != nil {
		return nil, err
	}
	return mat.Row(nil, i, obs), nil
}

func (p *PyMARLEnv) GetState() (*mat.VecDense, error) {
	if err := p.ensureStarted(); err != nil {
		return nil, err
	}
	return flatten.State(p.engine.Snapshot()), nil
}

// GetAvailActions returns one 0/1 mask per agent. Every move is available to
// an active agent since blocked moves degrade to staying; done agents may only stay.
func (p *PyMARLEnv) GetAvailActions() ([][]int, error) {
	if err := p.ensureStarted(); err != nil {
		return nil, err
	}
	snap := p.engine.Snapshot()
	avail := make([][]int, p.cfg.NumAgents)
	for i := range avail {
		mask := make([]int, core.NumActions)
		if snap.Agents[i].Done {
			mask[core.Stay] = 1
		} else {
			for a := range mask {
				mask[a] = 1
			}
		}
		avail[i] = mask
	}
	return avail, nil
}

func (p *PyMARLEnv) SampleActions() []core.Action {
	return p.sampleActions()
}

// Reset starts a new episode and returns its observation matrix and state.
func (p *PyMARLEnv) Reset() (*mat.Dense, *mat.VecDense, error) {
	if _, err := p.engine.Reset(nil); err != nil {
		return nil, nil, err
	}
	snap := p.engine.Snapshot()
	return flatten.Observations(snap), flatten.State(snap), nil
}

// Step advances the team and returns the summed reward. done is true once
// every agent is done; the caller must Reset before stepping again.
func (p *PyMARLEnv) Step(actions []core.Action) (float64, bool, core.Info, error) {
	res, reward, err := p.step(actions)
	if err != nil {
		return 0, false, core.Info{}, err
	}
	return reward, res.AllDone(), res.Info, nil
}

func (p *PyMARLEnv) step(actions []core.Action) (core.StepResult, float64, error) {
	if err := p.ensureStarted(); err != nil {
		return core.StepResult{}, 0, err
	}
	res, err := p.engine.Step(actions)
	if err != nil {
		return core.StepResult{}, 0, err
	}
	var reward float64
	for _, r := range res.Rewards {
		reward += r
	}
	return res, reward, nil
}

// Vector exposes the team in agent-index order. Every agent is credited the
// shared team reward and reports the team's done flag.
func (p *PyMARLEnv) Vector() MultiAgentEnv {
	return pymarlVector{p}
}

type pymarlVector struct {
	p *PyMARLEnv
}

func (v pymarlVector) NumAgents() int { return v.p.cfg.NumAgents }

func (v pymarlVector) Reset(seed *int64) ([][]float32, error) {
	return v.p.engine.Reset(seed)
}

func (v pymarlVector) Step(actions []core.Action) (core.StepResult, error) {
	res, reward, err := v.p.step(actions)
	if err != nil {
		return core.StepResult{}, err
	}
	done := res.AllDone()
	for i := range res.Rewards {
		res.Rewards[i] = reward
		res.Dones[i] = done
	}
	return res, nil
}
