package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/boristopalov/gridsim/pkg/core"
)

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(2)
	h.Store(core.EpisodeStats{Steps: 1})
	h.Store(core.EpisodeStats{Steps: 2})
	h.Store(core.EpisodeStats{Steps: 3})

	all := h.All()
	assert.Len(t, all, 2)
	assert.Equal(t, 2, all[0].Steps)
	assert.Equal(t, 3, all[1].Steps)

	all[0].Steps = 99
	assert.Equal(t, 2, h.All()[0].Steps)
}

func TestHistoryMean(t *testing.T) {
	h := NewHistory(4)
	isr, csr := h.Mean()
	assert.Zero(t, isr)
	assert.Zero(t, csr)
	assert.Zero(t, h.TruncationRate())

	h.Store(core.EpisodeStats{ISR: 1, CSR: 0.2})
	h.Store(core.EpisodeStats{ISR: 0.5, CSR: 0, Truncated: true})

	isr, csr = h.Mean()
	assert.InDelta(t, 0.75, isr, 1e-9)
	assert.InDelta(t, 0.1, csr, 1e-9)
	assert.InDelta(t, 0.5, h.TruncationRate(), 1e-9)
}

func TestHistoryNeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(t, "capacity")
		n := rapid.IntRange(0, 32).Draw(t, "n")
		h := NewHistory(capacity)
		for i := 0; i < n; i++ {
			h.Store(core.EpisodeStats{Steps: i})
		}
		want := min(n, capacity)
		if h.Len() != want {
			t.Fatalf("len %d, want %d", h.Len(), want)
		}
		if n > 0 && h.All()[h.Len()-1].Steps != n-1 {
			t.Fatalf("newest episode lost")
		}
	})
}
