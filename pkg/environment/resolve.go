package environment

import (
	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/grid"
)

// resolve computes where every agent ends the step and how many agents were
// rejected by a vertex or swap conflict. It only reads the start-of-step
// positions, so the outcome does not depend on agent order.
//
// Moves into walls or off the map are dropped up front and are not conflicts.
// The remaining moves are rejected in rounds: a move is rejected when another
// agent ends up targeting the same cell or when two agents try to swap cells.
// A rejected agent falls back to its own cell, which can in turn block an agent
// that was following into it, so rounds repeat until nothing changes.
func resolve(world *grid.World, agents []core.AgentState, actions []core.Action) ([]core.Position, int) {
	n := len(agents)
	start := make([]core.Position, n)
	target := make([]core.Position, n)
	moving := make([]bool, n)
	occupant := make(map[core.Position]int, n)

	for i, a := range agents {
		start[i] = a.Position
		target[i] = a.Position
		if a.Done {
			continue
		}
		occupant[a.Position] = i
		next := a.Position.Move(actions[i])
		if next == a.Position || world.Blocked(next) {
			continue
		}
		target[i] = next
		moving[i] = true
	}

	conflicted := make([]bool, n)
	for {
		claims := make(map[core.Position]int, n)
		for i, a := range agents {
			if !a.Done {
				claims[target[i]]++
			}
		}

		var rejected []int
		for i := range agents {
			if !moving[i] {
				continue
			}
			if claims[target[i]] > 1 {
				rejected = append(rejected, i)
				continue
			}
			if j, ok := occupant[target[i]]; ok && moving[j] && target[j] == start[i] {
				rejected = append(rejected, i)
			}
		}
		if len(rejected) == 0 {
			break
		}
		for _, i := range rejected {
			moving[i] = false
			target[i] = start[i]
			conflicted[i] = true
		}
	}

	conflicts := 0
	for _, c := range conflicted {
		if c {
			conflicts++
		}
	}
	return target, conflicts
}
