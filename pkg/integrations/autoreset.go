package integrations

import (
	"fmt"

	"github.com/boristopalov/gridsim/pkg/core"
)

// MultiAgentEnv is the index-ordered stepping protocol AutoReset wraps. The
// engine satisfies it directly; the dict-keyed and team-reward adapters expose
// it through their Vector method.
type MultiAgentEnv interface {
	Reset(seed *int64) ([][]float32, error)
	Step(actions []core.Action) (core.StepResult, error)
	NumAgents() int
}

// AutoReset starts a new episode on the step call that follows full
// termination. The terminal step itself is returned untouched, so its info
// still carries the finished episode's statistics.
type AutoReset struct {
	env          MultiAgentEnv
	pendingReset bool
}

func NewAutoReset(env MultiAgentEnv) *AutoReset {
	return &AutoReset{env: env}
}

func (a *AutoReset) NumAgents() int { return a.env.NumAgents() }

// PendingReset reports whether the next Step will begin a fresh episode.
func (a *AutoReset) PendingReset() bool { return a.pendingReset }

func (a *AutoReset) Reset(seed *int64) ([][]float32, error) {
	obs, err := a.env.Reset(seed)
	if err != nil {
		return nil, err
	}
	a.pendingReset = false
	return obs, nil
}

// Step validates actions, performs the pending reset if any, and forwards.
func (a *AutoReset) Step(actions []core.Action) (core.StepResult, error) {
	if len(actions) != a.env.NumAgents() {
		return core.StepResult{}, fmt.Errorf("got %d actions for %d agents: %w",
			len(actions), a.env.NumAgents(), core.ErrActionShape)
	}
	for i, act := range actions {
		if !act.Valid() {
			return core.StepResult{}, fmt.Errorf("agent %d: %v: %w", i, act, core.ErrActionShape)
		}
	}

	if a.pendingReset {
		if _, err := a.env.Reset(nil); err != nil {
			return core.StepResult{}, err
		}
		a.pendingReset = false
	}

	res, err := a.env.Step(actions)
	if err != nil {
		return core.StepResult{}, err
	}
	if res.AllDone() {
		a.pendingReset = true
	}
	return res, nil
}
