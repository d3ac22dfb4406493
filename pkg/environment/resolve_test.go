package environment

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/grid"
)

func TestResolveIsOrderIndependent(t *testing.T) {
	const size = 4
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(t, "agents")

		cells := make([]int, size*size)
		for i := range cells {
			cells[i] = i
		}
		cells = rapid.Permutation(cells).Draw(t, "cells")

		mask := make([]bool, size*size)
		for _, c := range cells[n:] {
			mask[c] = rapid.Float64Range(0, 1).Draw(t, "obstacle") < 0.2
		}
		world := grid.NewWorld(size, mask)

		agents := make([]core.AgentState, n)
		actions := make([]core.Action, n)
		for i := range agents {
			agents[i] = core.AgentState{Position: core.Position{Row: cells[i] / size, Col: cells[i] % size}}
			actions[i] = core.Action(rapid.IntRange(0, core.NumActions-1).Draw(t, "action"))
		}

		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		perm := rapid.Permutation(idx).Draw(t, "order")
		permAgents := make([]core.AgentState, n)
		permActions := make([]core.Action, n)
		for k, i := range perm {
			permAgents[k] = agents[i]
			permActions[k] = actions[i]
		}

		next, conflicts := resolve(world, agents, actions)
		permNext, permConflicts := resolve(world, permAgents, permActions)

		if conflicts != permConflicts {
			t.Fatalf("conflicts %d in original order, %d permuted", conflicts, permConflicts)
		}
		for k, i := range perm {
			if permNext[k] != next[i] {
				t.Fatalf("agent %d ends at %v in original order, %v permuted", i, next[i], permNext[k])
			}
		}

		seen := make(map[core.Position]int, n)
		for i, p := range next {
			if j, ok := seen[p]; ok {
				t.Fatalf("agents %d and %d both end at %v", j, i, p)
			}
			if world.Blocked(p) {
				t.Fatalf("agent %d ends on blocked cell %v", i, p)
			}
			seen[p] = i
		}
	})
}
