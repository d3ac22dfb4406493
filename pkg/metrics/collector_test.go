package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/boristopalov/gridsim/pkg/core"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector(4)
	assert.Nil(t, c.Snapshot())

	c.RecordStep(2, 0)
	c.RecordStep(0, 1)
	c.RecordStep(1, 3)

	stats := c.Finalize(false)
	assert.Equal(t, 3, stats.Steps)
	assert.Equal(t, 3, stats.Collisions)
	assert.Equal(t, 4, stats.Successes)
	assert.InDelta(t, 1.0, stats.ISR, 1e-12)
	assert.InDelta(t, 3.0/12.0, stats.CSR, 1e-12)
	assert.False(t, stats.Truncated)

	t.Run("finalized snapshot is frozen", func(t *testing.T) {
		c.RecordStep(4, 0)
		again := c.Finalize(true)
		assert.Equal(t, stats, again)
		require.NotNil(t, c.Snapshot())
		assert.Equal(t, stats, *c.Snapshot())
	})

	t.Run("reset starts a new record", func(t *testing.T) {
		c.Reset()
		assert.Nil(t, c.Snapshot())
		assert.Zero(t, c.Steps())
		empty := c.Finalize(true)
		assert.Zero(t, empty.CSR)
		assert.Zero(t, empty.ISR)
		assert.True(t, empty.Truncated)
	})
}

func TestRatesStayInUnitInterval(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		agents := rapid.IntRange(1, 64).Draw(rt, "agents")
		steps := rapid.IntRange(0, 256).Draw(rt, "steps")
		c := NewCollector(agents)
		remaining := agents
		for i := 0; i < steps; i++ {
			done := rapid.IntRange(0, remaining).Draw(rt, "done")
			remaining -= done
			c.RecordStep(rapid.IntRange(0, agents).Draw(rt, "collisions"), done)
		}
		stats := c.Finalize(remaining > 0)
		assert.GreaterOrEqual(rt, stats.ISR, 0.0)
		assert.LessOrEqual(rt, stats.ISR, 1.0)
		assert.GreaterOrEqual(rt, stats.CSR, 0.0)
		assert.LessOrEqual(rt, stats.CSR, 1.0)
		assert.Equal(rt, remaining == 0, stats.ISR == 1.0)
	})
}

func TestExporter(t *testing.T) {
	e := NewExporter("gridsim", nil)
	e.ObserveEpisode("PyMARL", core.EpisodeStats{ISR: 0.5, CSR: 0.25, Steps: 16, Collisions: 3, Truncated: true})
	e.ObserveEpisode("PyMARL", core.EpisodeStats{ISR: 1, CSR: 0, Steps: 9})

	assert.Equal(t, 1.0, testutil.ToFloat64(e.episodesTotal.WithLabelValues("PyMARL", OutcomeTruncated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.episodesTotal.WithLabelValues("PyMARL", OutcomeSuccess)))
	assert.Equal(t, 3.0, testutil.ToFloat64(e.collisionsTotal.WithLabelValues("PyMARL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.lastISR.WithLabelValues("PyMARL")))

	path := filepath.Join(t.TempDir(), "gridsim.prom")
	require.NoError(t, e.WriteTextfile(path))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "gridsim_episode_length_steps"))
}
