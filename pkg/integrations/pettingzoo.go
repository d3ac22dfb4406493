package integrations

import (
	"fmt"

	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/environment"
	"github.com/boristopalov/gridsim/pkg/spaces"
)

// AgentName is the name under which agent i appears in dict-keyed conventions.
func AgentName(i int) string {
	return fmt.Sprintf("player_%d", i)
}

// PettingZooEnv is the parallel convention: every live agent acts at once and
// results come back keyed by agent name. Agents drop out of Agents() once done.
type PettingZooEnv struct {
	*session
	possible []string
	index    map[string]int
	live     []string
}

func newPettingZoo(s *session) *PettingZooEnv {
	p := &PettingZooEnv{
		session:  s,
		possible: make([]string, s.cfg.NumAgents),
		index:    make(map[string]int, s.cfg.NumAgents),
	}
	for i := range p.possible {
		name := AgentName(i)
		p.possible[i] = name
		p.index[name] = i
	}
	return p
}

// PossibleAgents lists every agent that can ever appear, in index order.
func (p *PettingZooEnv) PossibleAgents() []string {
	return append([]string(nil), p.possible...)
}

// Agents lists the agents still acting in the current episode.
func (p *PettingZooEnv) Agents() []string {
	return append([]string(nil), p.live...)
}

func (p *PettingZooEnv) NumAgents() int    { return len(p.live) }
func (p *PettingZooEnv) MaxNumAgents() int { return len(p.possible) }

func (p *PettingZooEnv) ObservationSpace(string) spaces.Box { return observationSpace(p.session) }
func (p *PettingZooEnv) ActionSpace(string) spaces.Discrete {
	return spaces.Discrete{N: core.NumActions}
}

// SampleActions draws one action for every live agent.
func (p *PettingZooEnv) SampleActions() map[string]core.Action {
	actions := make(map[string]core.Action, len(p.live))
	for _, name := range p.live {
		actions[name] = core.Action(p.rng.IntN(core.NumActions))
	}
	return actions
}

func (p *PettingZooEnv) Reset(seed *int64) (map[string][]float32, error) {
	obs, err := p.engine.Reset(seed)
	if err != nil {
		return nil, err
	}
	p.live = p.PossibleAgents()
	out := make(map[string][]float32, len(obs))
	for i, o := range obs {
		out[p.possible[i]] = o
	}
	return out, nil
}

// Step applies the given actions; live agents without an entry stay in place.
// Results are keyed by the agents that were live when the step began.
func (p *PettingZooEnv) Step(actions map[string]core.Action) (
	map[string][]float32, map[string]float64, map[string]bool, map[string]core.Info, error,
) {
	if !p.engine.Started() {
		if _, err := p.Reset(nil); err != nil {
			return nil, nil, nil, nil, err
		}
	}

	alive := make(map[string]bool, len(p.live))
	for _, name := range p.live {
		alive[name] = true
	}
	batch := make([]core.Action, len(p.possible))
	for name, a := range actions {
		if !alive[name] {
			return nil, nil, nil, nil, fmt.Errorf("agent %q is not live: %w", name, core.ErrActionShape)
		}
		batch[p.index[name]] = a
	}

	res, err := p.engine.Step(batch)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	obs := make(map[string][]float32, len(p.live))
	rewards := make(map[string]float64, len(p.live))
	dones := make(map[string]bool, len(p.live))
	infos := make(map[string]core.Info, len(p.live))
	next := p.live[:0:0]
	for _, name := range p.live {
		i := p.index[name]
		obs[name] = res.Observations[i]
		rewards[name] = res.Rewards[i]
		dones[name] = res.Dones[i]
		infos[name] = res.Info
		if !res.Dones[i] {
			next = append(next, name)
		}
	}
	p.live = next
	return obs, rewards, dones, infos, nil
}

// Vector exposes the parallel env in agent-index order. Actions addressed to
// agents that are no longer live are ignored; their slots report a zero
// observation, zero reward and done.
func (p *PettingZooEnv) Vector() MultiAgentEnv {
	return pettingZooVector{p}
}

type pettingZooVector struct {
	p *PettingZooEnv
}

func (v pettingZooVector) NumAgents() int { return v.p.MaxNumAgents() }

func (v pettingZooVector) Reset(seed *int64) ([][]float32, error) {
	obs, err := v.p.Reset(seed)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(v.p.possible))
	for i, name := range v.p.possible {
		out[i] = obs[name]
	}
	return out, nil
}

func (v pettingZooVector) Step(actions []core.Action) (core.StepResult, error) {
	n := len(v.p.possible)
	if len(actions) != n {
		return core.StepResult{}, fmt.Errorf("got %d actions for %d agents: %w", len(actions), n, core.ErrActionShape)
	}
	if !v.p.engine.Started() {
		if _, err := v.p.Reset(nil); err != nil {
			return core.StepResult{}, err
		}
	}

	batch := make(map[string]core.Action, len(v.p.live))
	for _, name := range v.p.live {
		batch[name] = actions[v.p.index[name]]
	}
	obs, rewards, dones, infos, err := v.p.Step(batch)
	if err != nil {
		return core.StepResult{}, err
	}

	res := core.StepResult{
		Observations: make([][]float32, n),
		Rewards:      make([]float64, n),
		Dones:        make([]bool, n),
	}
	for i, name := range v.p.possible {
		o, ok := obs[name]
		if !ok {
			res.Observations[i] = make([]float32, environment.ObsLen(v.p.cfg))
			res.Dones[i] = true
			continue
		}
		res.Observations[i] = o
		res.Rewards[i] = rewards[name]
		res.Dones[i] = dones[name]
		res.Info = infos[name]
	}
	return res, nil
}
