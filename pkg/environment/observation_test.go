package environment

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/boristopalov/gridsim/pkg/config"
	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/grid"
)

func cellAt(obs []float32, cfg config.GridConfig, channel, dr, dc int) float32 {
	r := cfg.ObsRadius
	w := cfg.ObsWidth()
	return obs[channel*w*w+(dr+r)*w+(dc+r)]
}

func TestObservationLayout(t *testing.T) {
	e := newFixedEngine(t,
		[]core.Position{pos(0, 0), pos(1, 1)},
		[]core.Position{pos(4, 4), pos(1, 0)},
		pos(0, 1),
	)
	cfg := e.Config()
	snap := e.Snapshot()

	obs := snap.Observation(0)
	require.Len(t, obs, ObsLen(cfg))
	assert.Equal(t, [3]int{3, 3, 3}, ObsShape(cfg))

	// agent 0 sits in the top-left corner: row -1 and col -1 are off the map
	assert.Equal(t, float32(1), cellAt(obs, cfg, ChannelObstacles, -1, 0))
	assert.Equal(t, float32(1), cellAt(obs, cfg, ChannelObstacles, 0, -1))
	assert.Equal(t, float32(1), cellAt(obs, cfg, ChannelObstacles, 0, 1))
	assert.Equal(t, float32(0), cellAt(obs, cfg, ChannelObstacles, 1, 1))
	// agent 1 is diagonally below-right, self is not drawn
	assert.Equal(t, float32(1), cellAt(obs, cfg, ChannelAgents, 1, 1))
	assert.Equal(t, float32(0), cellAt(obs, cfg, ChannelAgents, 0, 0))
	// goal (4,4) is outside the window, projected onto its corner
	assert.Equal(t, float32(1), cellAt(obs, cfg, ChannelGoal, 1, 1))

	// agent 1's goal is inside its window
	obs1 := snap.Observation(1)
	assert.Equal(t, float32(1), cellAt(obs1, cfg, ChannelGoal, 0, -1))
	assert.Equal(t, float32(1), cellAt(obs1, cfg, ChannelAgents, -1, -1))
}

func TestObservationSingleGoalCell(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := config.Default()
		cfg.Size = rapid.IntRange(3, 10).Draw(rt, "size")
		cfg.ObsRadius = rapid.IntRange(0, 5).Draw(rt, "radius")
		cfg.NumAgents = 1
		cfg.Density = 0.1
		seed := rapid.Uint64().Draw(rt, "seed")

		world, starts, goals, err := grid.RandomGenerator{}.Generate(cfg, rand.New(rand.NewPCG(seed, seed)))
		require.NoError(rt, err)
		snap := Snapshot{
			Config: cfg,
			World:  world,
			Agents: []core.AgentState{{Position: starts[0], Goal: goals[0]}},
		}
		obs := snap.Observation(0)
		require.Len(rt, obs, ObsLen(cfg))

		plane := cfg.ObsWidth() * cfg.ObsWidth()
		var marked float32
		for _, v := range obs[ChannelGoal*plane:] {
			marked += v
		}
		assert.Equal(rt, float32(1), marked)
	})
}

func TestOccupancy(t *testing.T) {
	e := newFixedEngine(t,
		[]core.Position{pos(0, 0), pos(2, 3)},
		[]core.Position{pos(0, 1), pos(4, 4)},
	)
	occ := e.Snapshot().Occupancy()
	require.Len(t, occ, 25)
	assert.Equal(t, float32(1), occ[0])
	assert.Equal(t, float32(1), occ[2*5+3])

	_, err := e.Step([]core.Action{core.Right, core.Stay})
	require.NoError(t, err)
	occ = e.Snapshot().Occupancy()
	// the finished agent leaves the board
	assert.Equal(t, float32(0), occ[1])
	assert.Equal(t, float32(1), occ[2*5+3])
}
