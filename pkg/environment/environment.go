// Package environment implements the episode engine: seeded map generation,
// simultaneous conflict-resolved stepping, partial observations and episode
// termination.
package environment

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boristopalov/gridsim/pkg/config"
	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/grid"
	"github.com/boristopalov/gridsim/pkg/metrics"
)

// GoalReward is paid to an agent on the step it reaches its goal.
const GoalReward = 1.0

// pcgStream is the fixed second PCG word; only the seed varies between episodes.
const pcgStream = 0x9e3779b97f4a7c15

// Engine owns the state of one environment instance. It is not safe for
// concurrent use; independent engines share nothing.
type Engine struct {
	cfg       config.GridConfig
	generator grid.Generator
	seeds     *rand.Rand
	logger    *zap.Logger

	world     *grid.World
	agents    []core.AgentState
	step      int
	episodeID string
	seed      int64
	started   bool
	finished  bool
	record    *metrics.Collector
}

type Option func(*Engine)

// WithGenerator replaces the default random map generator.
func WithGenerator(g grid.Generator) Option {
	return func(e *Engine) {
		e.generator = g
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithSeedSource sets the generator that draws episode seeds when neither
// Reset nor the config supplies one.
func WithSeedSource(r *rand.Rand) Option {
	return func(e *Engine) {
		e.seeds = r
	}
}

// NewEngine validates the simulation parameters of cfg and returns an engine
// that has not started an episode yet.
func NewEngine(cfg config.GridConfig, opts ...Option) (*Engine, error) {
	if err := cfg.ValidateGrid(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		generator: grid.RandomGenerator{},
		logger:    zap.NewNop(),
		record:    metrics.NewCollector(cfg.NumAgents),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.seeds == nil {
		now := uint64(time.Now().UnixNano())
		e.seeds = rand.New(rand.NewPCG(now, pcgStream))
	}
	e.logger = e.logger.With(zap.String("component", "engine"))
	return e, nil
}

func (e *Engine) Config() config.GridConfig { return e.cfg }
func (e *Engine) NumAgents() int            { return e.cfg.NumAgents }
func (e *Engine) EpisodeID() string         { return e.episodeID }
func (e *Engine) Started() bool             { return e.started }

// Done reports whether the current episode has terminated.
func (e *Engine) Done() bool { return e.finished }

// Reset starts a new episode. An explicit seed overrides the config seed.
func (e *Engine) Reset(seed *int64) ([][]float32, error) {
	effective := e.effectiveSeed(seed)
	rng := rand.New(rand.NewPCG(uint64(effective), pcgStream))

	world, starts, goals, err := e.generator.Generate(e.cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("generate episode map: %w", err)
	}
	if len(starts) != e.cfg.NumAgents || len(goals) != e.cfg.NumAgents {
		return nil, fmt.Errorf("generator placed %d starts and %d goals for %d agents: %w",
			len(starts), len(goals), e.cfg.NumAgents, core.ErrConfiguration)
	}

	e.world = world
	e.agents = make([]core.AgentState, e.cfg.NumAgents)
	for i := range e.agents {
		e.agents[i] = core.AgentState{Position: starts[i], Goal: goals[i]}
	}
	e.step = 0
	e.seed = effective
	e.episodeID = uuid.NewString()
	e.started = true
	e.finished = false
	e.record.Reset()

	e.logger.Debug("episode reset",
		zap.String("episode_id", e.episodeID),
		zap.Int64("seed", effective),
		zap.Int("agents", e.cfg.NumAgents),
	)
	return e.observations(), nil
}

func (e *Engine) effectiveSeed(seed *int64) int64 {
	switch {
	case seed != nil:
		return *seed
	case e.cfg.Seed != nil:
		return *e.cfg.Seed
	default:
		return e.seeds.Int64()
	}
}

// Step applies one action per agent simultaneously. Invalid input leaves the
// episode untouched.
func (e *Engine) Step(actions []core.Action) (core.StepResult, error) {
	if !e.started || e.finished {
		return core.StepResult{}, core.ErrEpisodeFinished
	}
	if len(actions) != e.cfg.NumAgents {
		return core.StepResult{}, fmt.Errorf("got %d actions for %d agents: %w",
			len(actions), e.cfg.NumAgents, core.ErrActionShape)
	}
	for i, a := range actions {
		if !a.Valid() {
			return core.StepResult{}, fmt.Errorf("agent %d: %v: %w", i, a, core.ErrActionShape)
		}
	}

	next, conflicts := resolve(e.world, e.agents, actions)

	rewards := make([]float64, len(e.agents))
	completed := 0
	for i := range e.agents {
		if e.agents[i].Done {
			continue
		}
		e.agents[i].Position = next[i]
		if next[i] == e.agents[i].Goal {
			e.agents[i].Done = true
			rewards[i] = GoalReward
			completed++
		}
	}
	e.step++
	e.record.RecordStep(conflicts, completed)

	allDone := true
	for _, a := range e.agents {
		if !a.Done {
			allDone = false
			break
		}
	}
	truncated := !allDone && e.step >= e.cfg.MaxEpisodeSteps
	e.finished = allDone || truncated

	dones := make([]bool, len(e.agents))
	for i, a := range e.agents {
		dones[i] = a.Done || e.finished
	}

	info := core.Info{
		EpisodeID:  e.episodeID,
		Step:       e.step,
		Collisions: e.record.Collisions(),
		Successes:  e.record.Successes(),
		Truncated:  truncated,
	}
	if e.finished {
		stats := e.record.Finalize(truncated)
		info.EpisodeStats = &stats
		e.logger.Debug("episode finished",
			zap.String("episode_id", e.episodeID),
			zap.Bool("truncated", truncated),
			zap.Int("steps", stats.Steps),
			zap.Float64("isr", stats.ISR),
			zap.Float64("csr", stats.CSR),
		)
	}

	return core.StepResult{
		Observations: e.observations(),
		Rewards:      rewards,
		Dones:        dones,
		Info:         info,
	}, nil
}

// Stats returns the finalized snapshot of the current episode, or nil while it
// is still running.
func (e *Engine) Stats() *core.EpisodeStats {
	return e.record.Snapshot()
}

// Snapshot returns a read-only copy of the current episode state.
func (e *Engine) Snapshot() Snapshot {
	agents := make([]core.AgentState, len(e.agents))
	copy(agents, e.agents)
	return Snapshot{
		Config:    e.cfg,
		World:     e.world,
		Agents:    agents,
		Step:      e.step,
		Seed:      e.seed,
		EpisodeID: e.episodeID,
	}
}

func (e *Engine) observations() [][]float32 {
	snap := e.Snapshot()
	obs := make([][]float32, len(e.agents))
	for i := range e.agents {
		obs[i] = snap.Observation(i)
	}
	return obs
}
