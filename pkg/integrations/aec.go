package integrations

import (
	"fmt"

	"github.com/boristopalov/gridsim/pkg/core"
)

// AECEnv is the turn-based view of a parallel environment: agents act one at a
// time and the wrapped parallel step runs once every live agent has acted.
type AECEnv struct {
	parallel *PettingZooEnv

	order    []string
	cursor   int
	pending  map[string]core.Action
	obs      map[string][]float32
	rewards  map[string]float64
	dones    map[string]bool
	infos    map[string]core.Info
	finished bool
}

// ParallelToAEC wraps p in the turn-based convention.
func ParallelToAEC(p *PettingZooEnv) *AECEnv {
	return &AECEnv{parallel: p}
}

func (a *AECEnv) PossibleAgents() []string { return a.parallel.PossibleAgents() }

// Agents lists the agents that still take turns.
func (a *AECEnv) Agents() []string { return append([]string(nil), a.order...) }

func (a *AECEnv) Reset(seed *int64) error {
	obs, err := a.parallel.Reset(seed)
	if err != nil {
		return err
	}
	a.order = a.parallel.Agents()
	a.cursor = 0
	a.pending = make(map[string]core.Action, len(a.order))
	a.obs = obs
	a.rewards = make(map[string]float64, len(a.order))
	a.dones = make(map[string]bool, len(a.order))
	a.infos = make(map[string]core.Info, len(a.order))
	a.finished = false
	return nil
}

// AgentSelection names the agent whose turn it is, or "" once every agent is done.
func (a *AECEnv) AgentSelection() string {
	if a.finished || a.cursor >= len(a.order) {
		return ""
	}
	return a.order[a.cursor]
}

// Observe returns the latest observation of agent.
func (a *AECEnv) Observe(agent string) []float32 {
	return a.obs[agent]
}

// Last reports what the selected agent saw after the most recent parallel step.
func (a *AECEnv) Last() ([]float32, float64, bool, core.Info) {
	agent := a.AgentSelection()
	return a.obs[agent], a.rewards[agent], a.dones[agent], a.infos[agent]
}

// Step records the selected agent's action. After the last live agent acts the
// parallel environment advances and the turn order restarts from the agents
// still live.
func (a *AECEnv) Step(action core.Action) error {
	if a.pending == nil {
		if err := a.Reset(nil); err != nil {
			return err
		}
	}
	agent := a.AgentSelection()
	if agent == "" {
		return core.ErrEpisodeFinished
	}
	if !action.Valid() {
		return fmt.Errorf("agent %s: %v: %w", agent, action, core.ErrActionShape)
	}
	a.pending[agent] = action
	a.cursor++
	if a.cursor < len(a.order) {
		return nil
	}

	obs, rewards, dones, infos, err := a.parallel.Step(a.pending)
	if err != nil {
		a.restartTurn()
		return err
	}
	for name := range obs {
		a.obs[name] = obs[name]
		a.rewards[name] = rewards[name]
		a.dones[name] = dones[name]
		a.infos[name] = infos[name]
	}
	a.restartTurn()
	return nil
}

// restartTurn begins a new round over the agents the parallel env reports live.
func (a *AECEnv) restartTurn() {
	a.order = a.parallel.Agents()
	a.cursor = 0
	a.pending = make(map[string]core.Action, len(a.order))
	a.finished = len(a.order) == 0
}
