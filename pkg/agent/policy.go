// Package agent provides scripted policies that drive rollouts without a learner.
package agent

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/boristopalov/gridsim/pkg/config"
	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/environment"
)

// Policy maps the observations of every agent to one action each.
type Policy interface {
	ID() string
	Act(obs [][]float32) []core.Action
}

const (
	PolicyRandom = "random"
	PolicyGreedy = "greedy"
)

type PolicyParams struct {
	ID   string
	Seed uint64
}

type PolicyOption func(*PolicyParams)

func WithPolicyID(id string) PolicyOption {
	return func(p *PolicyParams) {
		p.ID = id
	}
}

// WithSeed fixes the policy's random stream.
func WithSeed(seed uint64) PolicyOption {
	return func(p *PolicyParams) {
		p.Seed = seed
	}
}

func defaultPolicyParams() *PolicyParams {
	return &PolicyParams{
		ID:   "policy-" + uuid.New().String(),
		Seed: uint64(time.Now().UnixNano()),
	}
}

// NewPolicy builds the named scripted policy for observations shaped by cfg.
func NewPolicy(name string, cfg config.GridConfig, opts ...PolicyOption) (Policy, error) {
	params := defaultPolicyParams()
	for _, opt := range opts {
		opt(params)
	}
	rng := rand.New(rand.NewPCG(params.Seed, 2))

	switch name {
	case PolicyRandom:
		return &RandomPolicy{id: params.ID, rng: rng}, nil
	case PolicyGreedy:
		return &GreedyPolicy{id: params.ID, rng: rng, radius: cfg.ObsRadius}, nil
	default:
		return nil, fmt.Errorf("policy %q: %w", name, core.ErrConfiguration)
	}
}

// RandomPolicy picks uniformly among the five moves.
type RandomPolicy struct {
	id  string
	rng *rand.Rand
}

func (p *RandomPolicy) ID() string { return p.id }

func (p *RandomPolicy) Act(obs [][]float32) []core.Action {
	actions := make([]core.Action, len(obs))
	for i := range actions {
		actions[i] = core.Action(p.rng.IntN(core.NumActions))
	}
	return actions
}

// GreedyPolicy steps toward the goal marker in each agent's window, avoiding
// cells that show an obstacle or another agent. When both axes are blocked it
// makes a random move, which breaks most deadlocks between greedy agents.
type GreedyPolicy struct {
	id     string
	rng    *rand.Rand
	radius int
}

func (p *GreedyPolicy) ID() string { return p.id }

func (p *GreedyPolicy) Act(obs [][]float32) []core.Action {
	actions := make([]core.Action, len(obs))
	for i, o := range obs {
		actions[i] = p.act(o)
	}
	return actions
}

func (p *GreedyPolicy) act(obs []float32) core.Action {
	r := p.radius
	w := 2*r + 1
	plane := w * w
	if len(obs) != environment.NumChannels*plane {
		return core.Stay
	}

	goal, ok := findGoal(obs[environment.ChannelGoal*plane:(environment.ChannelGoal+1)*plane], w)
	if !ok {
		return core.Stay
	}
	dr, dc := goal.Row-r, goal.Col-r
	if dr == 0 && dc == 0 {
		return core.Stay
	}

	free := func(a core.Action) bool {
		mr, mc := a.Delta()
		idx := (r+mr)*w + (r + mc)
		return obs[environment.ChannelObstacles*plane+idx] == 0 &&
			obs[environment.ChannelAgents*plane+idx] == 0
	}

	var preferred []core.Action
	vertical, horizontal := axisMove(dr, core.Up, core.Down), axisMove(dc, core.Left, core.Right)
	if abs(dr) >= abs(dc) {
		preferred = []core.Action{vertical, horizontal}
	} else {
		preferred = []core.Action{horizontal, vertical}
	}
	for _, a := range preferred {
		if a != core.Stay && free(a) {
			return a
		}
	}
	return core.Action(p.rng.IntN(core.NumActions))
}

// findGoal returns the window cell carrying the goal marker.
func findGoal(plane []float32, w int) (core.Position, bool) {
	for idx, v := range plane {
		if v > 0 {
			return core.Position{Row: idx / w, Col: idx % w}, true
		}
	}
	return core.Position{}, false
}

func axisMove(d int, neg, pos core.Action) core.Action {
	switch {
	case d < 0:
		return neg
	case d > 0:
		return pos
	default:
		return core.Stay
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
