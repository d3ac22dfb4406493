package spaces

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscrete(t *testing.T) {
	d := Discrete{N: 5}
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		assert.True(t, d.Contains(d.Sample(rng)))
	}
	assert.False(t, d.Contains(5))
	assert.False(t, d.Contains(-1))
	assert.Equal(t, "Discrete(5)", d.String())
}

func TestBox(t *testing.T) {
	b := Box{Shape: []int{3, 7, 7}, Low: 0, High: 1}
	assert.Equal(t, 147, b.Size())
	assert.True(t, b.Contains(make([]float32, 147)))
	assert.False(t, b.Contains(make([]float32, 146)))

	v := make([]float32, 147)
	v[3] = 2
	assert.False(t, b.Contains(v))
}
