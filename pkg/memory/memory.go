// Package memory keeps a bounded window of recently finished episodes.
package memory

import (
	"sync"

	"github.com/boristopalov/gridsim/pkg/core"
)

type History struct {
	episodes []core.EpisodeStats
	capacity int
	mu       sync.RWMutex
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		episodes: make([]core.EpisodeStats, 0, capacity),
		capacity: capacity,
	}
}

// All returns a copy of the stored episodes, oldest first.
func (h *History) All() []core.EpisodeStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	episodes := make([]core.EpisodeStats, len(h.episodes))
	copy(episodes, h.episodes)
	return episodes
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.episodes)
}

// Store appends stats, evicting the oldest entry once capacity is exceeded.
func (h *History) Store(stats core.EpisodeStats) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.episodes = append(h.episodes, stats)
	if len(h.episodes) > h.capacity {
		h.episodes = h.episodes[1:]
	}
}

// Mean returns the average ISR and CSR over the window, or zeros when empty.
func (h *History) Mean() (isr, csr float64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.episodes) == 0 {
		return 0, 0
	}
	for _, e := range h.episodes {
		isr += e.ISR
		csr += e.CSR
	}
	n := float64(len(h.episodes))
	return isr / n, csr / n
}

// TruncationRate is the fraction of stored episodes that hit the step limit.
func (h *History) TruncationRate() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.episodes) == 0 {
		return 0
	}
	truncated := 0
	for _, e := range h.episodes {
		if e.Truncated {
			truncated++
		}
	}
	return float64(truncated) / float64(len(h.episodes))
}
