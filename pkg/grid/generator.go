package grid

import (
	"fmt"
	"math/rand/v2"

	"github.com/boristopalov/gridsim/pkg/config"
	"github.com/boristopalov/gridsim/pkg/core"
)

// Generator produces the map and the start/goal pairs of a new episode.
// Implementations must draw randomness only from rng so that episodes are
// reproducible from the seed.
type Generator interface {
	Generate(cfg config.GridConfig, rng *rand.Rand) (*World, []core.Position, []core.Position, error)
}

// maxAttempts bounds how many obstacle masks are drawn before giving up on a
// configuration whose density leaves no room for the agents.
const maxAttempts = 64

// RandomGenerator scatters obstacles with the configured density and places
// every agent's goal inside its start's connected component.
type RandomGenerator struct{}

func (RandomGenerator) Generate(cfg config.GridConfig, rng *rand.Rand) (*World, []core.Position, []core.Position, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		mask := make([]bool, cfg.Size*cfg.Size)
		for i := range mask {
			mask[i] = rng.Float64() < cfg.Density
		}
		world := NewWorld(cfg.Size, mask)
		starts, goals, ok := place(world, cfg.NumAgents, rng)
		if ok {
			return world, starts, goals, nil
		}
	}
	return nil, nil, nil, fmt.Errorf("no placement for %d agents on a %dx%d map with density %v after %d attempts: %w",
		cfg.NumAgents, cfg.Size, cfg.Size, cfg.Density, maxAttempts, core.ErrConfiguration)
}

// place picks distinct starts and distinct goals. A goal never equals its own
// start and always shares its start's component.
func place(world *World, numAgents int, rng *rand.Rand) ([]core.Position, []core.Position, bool) {
	free := world.FreeCells()
	if len(free) < 2*numAgents {
		return nil, nil, false
	}
	labels := world.Components()
	size := world.Size()

	order := rng.Perm(len(free))
	startTaken := make(map[core.Position]bool, numAgents)
	goalTaken := make(map[core.Position]bool, numAgents)
	starts := make([]core.Position, 0, numAgents)
	goals := make([]core.Position, 0, numAgents)

	for _, idx := range order {
		if len(starts) == numAgents {
			break
		}
		start := free[idx]
		if startTaken[start] || goalTaken[start] {
			continue
		}
		comp := labels[start.Row*size+start.Col]

		candidates := make([]core.Position, 0)
		for _, cell := range free {
			if cell == start || startTaken[cell] || goalTaken[cell] {
				continue
			}
			if labels[cell.Row*size+cell.Col] == comp {
				candidates = append(candidates, cell)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		goal := candidates[rng.IntN(len(candidates))]
		startTaken[start] = true
		goalTaken[goal] = true
		starts = append(starts, start)
		goals = append(goals, goal)
	}
	return starts, goals, len(starts) == numAgents
}
