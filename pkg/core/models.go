package core

import (
	"fmt"
	"time"
)

// Action is a single discrete move chosen by one agent for one timestep.
type Action int

const (
	Stay Action = iota
	Up
	Down
	Left
	Right
)

// NumActions is the size of the discrete action set.
const NumActions = 5

// Valid reports whether a is one of the five legal moves.
func (a Action) Valid() bool {
	return a >= Stay && a <= Right
}

func (a Action) String() string {
	switch a {
	case Stay:
		return "stay"
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Delta returns the (row, col) displacement of the move.
func (a Action) Delta() (int, int) {
	switch a {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	default:
		return 0, 0
	}
}

// Position is a cell on the grid, addressed row-major.
type Position struct {
	Row int
	Col int
}

// Move returns the cell reached from p by taking a, ignoring bounds.
func (p Position) Move(a Action) Position {
	dr, dc := a.Delta()
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// AgentState is the per-agent slice of episode state.
type AgentState struct {
	Position Position
	Goal     Position
	Done     bool
}

type ExperimentStatus struct {
	Running   bool
	StartTime time.Time
	EndTime   time.Time
	Episodes  int
	Errors    []error
}
