// Package spaces describes the shape, type and bounds of observations and
// actions, the way learning frameworks expect to read them off an environment.
package spaces

import (
	"fmt"
	"math/rand/v2"
)

// Discrete is the set {0, ..., N-1}.
type Discrete struct {
	N int
}

func (d Discrete) Contains(v int) bool {
	return v >= 0 && v < d.N
}

// Sample draws a uniform element using rng.
func (d Discrete) Sample(rng *rand.Rand) int {
	return rng.IntN(d.N)
}

func (d Discrete) String() string {
	return fmt.Sprintf("Discrete(%d)", d.N)
}

// Box is a dense tensor of the given shape whose elements lie in [Low, High].
type Box struct {
	Shape []int
	Low   float32
	High  float32
}

// Size is the number of elements of one sample, the product of Shape.
func (b Box) Size() int {
	n := 1
	for _, d := range b.Shape {
		n *= d
	}
	return n
}

// Contains reports whether v has the right length and every element is in bounds.
func (b Box) Contains(v []float32) bool {
	if len(v) != b.Size() {
		return false
	}
	for _, x := range v {
		if x < b.Low || x > b.High {
			return false
		}
	}
	return true
}

func (b Box) String() string {
	return fmt.Sprintf("Box(%v, %v, %v)", b.Low, b.High, b.Shape)
}
