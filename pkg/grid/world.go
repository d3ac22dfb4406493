// Package grid holds the static map of an episode and the default map generator.
package grid

import (
	"github.com/boristopalov/gridsim/pkg/core"
)

// World is the obstacle layout of one episode. It is never mutated after generation.
type World struct {
	size      int
	obstacles []bool
}

// NewWorld builds a World from a row-major obstacle mask of length size*size.
func NewWorld(size int, obstacles []bool) *World {
	mask := make([]bool, size*size)
	copy(mask, obstacles)
	return &World{size: size, obstacles: mask}
}

func (w *World) Size() int {
	return w.size
}

// InBounds reports whether p lies on the map.
func (w *World) InBounds(p core.Position) bool {
	return p.Row >= 0 && p.Row < w.size && p.Col >= 0 && p.Col < w.size
}

// Blocked reports whether p is off the map or an obstacle.
func (w *World) Blocked(p core.Position) bool {
	if !w.InBounds(p) {
		return true
	}
	return w.obstacles[p.Row*w.size+p.Col]
}

// FreeCells returns all free cells in row-major order.
func (w *World) FreeCells() []core.Position {
	free := make([]core.Position, 0, len(w.obstacles))
	for i, blocked := range w.obstacles {
		if !blocked {
			free = append(free, core.Position{Row: i / w.size, Col: i % w.size})
		}
	}
	return free
}

// Components labels every free cell with the id of its 4-connected component.
// Obstacles get -1.
func (w *World) Components() []int {
	labels := make([]int, len(w.obstacles))
	for i := range labels {
		labels[i] = -1
	}

	next := 0
	queue := make([]int, 0, len(w.obstacles))
	for start, blocked := range w.obstacles {
		if blocked || labels[start] >= 0 {
			continue
		}
		labels[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			p := core.Position{Row: cur / w.size, Col: cur % w.size}
			for _, a := range []core.Action{core.Up, core.Down, core.Left, core.Right} {
				n := p.Move(a)
				if w.Blocked(n) {
					continue
				}
				idx := n.Row*w.size + n.Col
				if labels[idx] < 0 {
					labels[idx] = next
					queue = append(queue, idx)
				}
			}
		}
		next++
	}
	return labels
}
