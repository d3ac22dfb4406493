package environment

import (
	"github.com/boristopalov/gridsim/pkg/config"
	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/grid"
)

// Observation channels, in the order they are laid out in the flat vector.
const (
	ChannelObstacles = iota
	ChannelAgents
	ChannelGoal
	NumChannels
)

// ObsShape is the (channels, rows, cols) shape of one agent's observation.
func ObsShape(cfg config.GridConfig) [3]int {
	w := cfg.ObsWidth()
	return [3]int{NumChannels, w, w}
}

// ObsLen is the length of one flattened observation.
func ObsLen(cfg config.GridConfig) int {
	w := cfg.ObsWidth()
	return NumChannels * w * w
}

// Snapshot is a read-only view of an episode at one point in time.
type Snapshot struct {
	Config    config.GridConfig
	World     *grid.World
	Agents    []core.AgentState
	Step      int
	Seed      int64
	EpisodeID string
}

// Observation builds agent i's window, channel-major. Cells off the map read as
// obstacles. A goal outside the window is projected onto the window border.
// Finished agents get an all-zero observation.
func (s Snapshot) Observation(i int) []float32 {
	r := s.Config.ObsRadius
	w := s.Config.ObsWidth()
	plane := w * w
	obs := make([]float32, NumChannels*plane)
	if s.World == nil || i < 0 || i >= len(s.Agents) || s.Agents[i].Done {
		return obs
	}

	self := s.Agents[i]
	others := make(map[core.Position]bool, len(s.Agents))
	for j, a := range s.Agents {
		if j != i && !a.Done {
			others[a.Position] = true
		}
	}

	for dr := -r; dr <= r; dr++ {
		for dc := -r; dc <= r; dc++ {
			cell := core.Position{Row: self.Position.Row + dr, Col: self.Position.Col + dc}
			idx := (dr+r)*w + (dc + r)
			if s.World.Blocked(cell) {
				obs[ChannelObstacles*plane+idx] = 1
			}
			if others[cell] {
				obs[ChannelAgents*plane+idx] = 1
			}
		}
	}

	gr := clamp(self.Goal.Row-self.Position.Row, -r, r)
	gc := clamp(self.Goal.Col-self.Position.Col, -r, r)
	obs[ChannelGoal*plane+(gr+r)*w+(gc+r)] = 1

	return obs
}

// Occupancy returns a size*size row-major grid with 1 where an unfinished agent stands.
func (s Snapshot) Occupancy() []float32 {
	size := s.Config.Size
	occ := make([]float32, size*size)
	for _, a := range s.Agents {
		if a.Done {
			continue
		}
		occ[a.Position.Row*size+a.Position.Col] = 1
	}
	return occ
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
