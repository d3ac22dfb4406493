package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/boristopalov/gridsim/pkg/core"
)

const (
	OutcomeSuccess   = "success"
	OutcomeTruncated = "truncated"
)

// Exporter publishes finished-episode statistics as Prometheus metrics on its
// own registry.
type Exporter struct {
	registry *prometheus.Registry

	episodesTotal   *prometheus.CounterVec
	collisionsTotal *prometheus.CounterVec
	lastISR         *prometheus.GaugeVec
	lastCSR         *prometheus.GaugeVec
	episodeLength   *prometheus.HistogramVec

	logger *zap.Logger
}

// NewExporter registers the episode collectors under namespace.
func NewExporter(namespace string, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Exporter{
		registry: reg,
		episodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "episodes_total",
				Help:      "Number of finished episodes by outcome",
			},
			[]string{"integration", "outcome"},
		),
		collisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collisions_total",
				Help:      "Move-conflict rejections across finished episodes",
			},
			[]string{"integration"},
		),
		lastISR: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "episode_isr",
				Help:      "Individual success rate of the last finished episode",
			},
			[]string{"integration"},
		),
		lastCSR: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "episode_csr",
				Help:      "Collision rate of the last finished episode",
			},
			[]string{"integration"},
		),
		episodeLength: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "episode_length_steps",
				Help:      "Steps taken by finished episodes",
				Buckets:   prometheus.ExponentialBuckets(4, 2, 8),
			},
			[]string{"integration"},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// ObserveEpisode records one finished episode.
func (e *Exporter) ObserveEpisode(integration string, stats core.EpisodeStats) {
	outcome := OutcomeSuccess
	if stats.Truncated {
		outcome = OutcomeTruncated
	}
	e.episodesTotal.WithLabelValues(integration, outcome).Inc()
	e.collisionsTotal.WithLabelValues(integration).Add(float64(stats.Collisions))
	e.lastISR.WithLabelValues(integration).Set(stats.ISR)
	e.lastCSR.WithLabelValues(integration).Set(stats.CSR)
	e.episodeLength.WithLabelValues(integration).Observe(float64(stats.Steps))

	e.logger.Debug("episode observed",
		zap.String("integration", integration),
		zap.String("outcome", outcome),
		zap.Float64("isr", stats.ISR),
		zap.Float64("csr", stats.CSR),
		zap.Int("steps", stats.Steps),
	)
}

// Registry exposes the underlying registry as a Gatherer.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// WriteTextfile dumps the current metric values in the Prometheus text format.
func (e *Exporter) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, e.registry)
}
