// Package experiment drives batches of episodes with a scripted policy over
// independent engines and fans the finished episodes out to sinks.
package experiment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boristopalov/gridsim/pkg/agent"
	"github.com/boristopalov/gridsim/pkg/config"
	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/environment"
	"github.com/boristopalov/gridsim/pkg/grid"
	"github.com/boristopalov/gridsim/pkg/memory"
	"github.com/boristopalov/gridsim/pkg/messaging"
	"github.com/boristopalov/gridsim/pkg/metrics"
)

// DefaultHistory is the number of finished episodes kept for rolling means.
const DefaultHistory = 100

var _ core.Experiment = (*Runner)(nil)

type Runner struct {
	cfg       config.ExperimentConfig
	runID     string
	broker    *messaging.SimpleBroker
	history   *memory.History
	exporter  *metrics.Exporter
	generator grid.Generator
	logger    *zap.Logger

	mu     sync.RWMutex
	status core.ExperimentStatus
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithExporter feeds every finished episode to e.
func WithExporter(e *metrics.Exporter) Option {
	return func(r *Runner) {
		r.exporter = e
	}
}

func WithGenerator(g grid.Generator) Option {
	return func(r *Runner) {
		r.generator = g
	}
}

func WithHistory(h *memory.History) Option {
	return func(r *Runner) {
		r.history = h
	}
}

func NewRunner(cfg config.ExperimentConfig, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := agent.NewPolicy(cfg.Policy, cfg.Grid); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:     cfg,
		runID:   "run-" + uuid.New().String(),
		broker:  messaging.NewBroker(),
		history: memory.NewHistory(DefaultHistory),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(
		zap.String("component", "runner"),
		zap.String("run_id", r.runID),
		zap.String("experiment", cfg.Name),
	)
	return r, nil
}

func (r *Runner) RunID() string { return r.runID }

func (r *Runner) History() *memory.History { return r.history }

// GetStatus returns a copy of the current status.
func (r *Runner) GetStatus() core.ExperimentStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status := r.status
	status.Errors = append([]error(nil), r.status.Errors...)
	return status
}

// Run plays cfg.Episodes episodes spread across cfg.Workers goroutines. Each
// worker owns its engine and policy. Cancelling ctx stops the workers between
// steps; episodes finished before that are still flushed to the sinks.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	r.status = core.ExperimentStatus{Running: true, StartTime: time.Now()}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.status.Running = false
		r.status.EndTime = time.Now()
		r.mu.Unlock()
	}()

	r.logger.Info("starting run",
		zap.Int("episodes", r.cfg.Episodes),
		zap.Int("workers", r.cfg.Workers),
		zap.String("policy", r.cfg.Policy),
	)

	sinks, err := r.openSinks()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < r.cfg.Episodes; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < r.cfg.Workers; w++ {
		g.Go(func() error {
			return r.work(gctx, w, jobs)
		})
	}

	runErr := g.Wait()
	sinkErr := sinks.close()
	if err := multierr.Combine(runErr, sinkErr); err != nil {
		r.recordError(err)
		return err
	}

	if path := r.cfg.Logging.MetricsPath; path != "" && r.exporter != nil {
		if err := r.exporter.WriteTextfile(path); err != nil {
			r.recordError(err)
			return fmt.Errorf("write metrics %s: %w", path, err)
		}
	}

	isr, csr := r.history.Mean()
	r.logger.Info("run finished",
		zap.Int("episodes", r.GetStatus().Episodes),
		zap.Float64("mean_isr", isr),
		zap.Float64("mean_csr", csr),
		zap.Float64("truncation_rate", r.history.TruncationRate()),
	)
	return nil
}

func (r *Runner) work(ctx context.Context, worker int, jobs <-chan int) error {
	engineOpts := []environment.Option{
		environment.WithLogger(r.logger.With(zap.Int("worker", worker))),
	}
	if r.generator != nil {
		engineOpts = append(engineOpts, environment.WithGenerator(r.generator))
	}

	engine, err := environment.NewEngine(r.cfg.Grid, engineOpts...)
	if err != nil {
		return err
	}

	for episode := range jobs {
		policy, err := r.newPolicy(worker, episode)
		if err != nil {
			return err
		}
		stats, err := r.playEpisode(ctx, engine, policy, episode)
		if err != nil {
			return fmt.Errorf("worker %d episode %d: %w", worker, episode, err)
		}

		r.mu.Lock()
		r.status.Episodes++
		r.mu.Unlock()

		msg := messaging.Message{
			From: fmt.Sprintf("worker-%d", worker),
			Event: messaging.EpisodeEvent{
				RunID:       r.runID,
				Worker:      worker,
				Episode:     episode,
				EpisodeID:   engine.EpisodeID(),
				Integration: integrationLabel(r.cfg.Grid.Integration),
				Stats:       stats,
			},
			Timestamp: time.Now(),
		}
		if err := r.broker.Publish(msg); err != nil {
			r.logger.Warn("dropped episode event", zap.Int("episode", episode), zap.Error(err))
			r.recordError(err)
		}
	}
	return nil
}

// newPolicy builds the policy for one episode. Seeded runs derive the policy
// seed from the episode index alone.
func (r *Runner) newPolicy(worker, episode int) (agent.Policy, error) {
	opts := []agent.PolicyOption{agent.WithPolicyID(fmt.Sprintf("%s-%d", r.cfg.Policy, worker))}
	if seed := r.cfg.Grid.Seed; seed != nil {
		opts = append(opts, agent.WithSeed(uint64(*seed)+uint64(episode)))
	}
	return agent.NewPolicy(r.cfg.Policy, r.cfg.Grid, opts...)
}

// playEpisode runs one episode to termination. With a seeded grid config the
// episode seed is the config seed offset by the episode index, so results do
// not depend on which worker picks the episode up.
func (r *Runner) playEpisode(ctx context.Context, engine *environment.Engine, policy agent.Policy, episode int) (core.EpisodeStats, error) {
	var seed *int64
	if base := r.cfg.Grid.Seed; base != nil {
		seed = config.Seed(*base + int64(episode))
	}
	obs, err := engine.Reset(seed)
	if err != nil {
		return core.EpisodeStats{}, err
	}
	for !engine.Done() {
		if err := ctx.Err(); err != nil {
			return core.EpisodeStats{}, err
		}
		res, err := engine.Step(policy.Act(obs))
		if err != nil {
			return core.EpisodeStats{}, err
		}
		obs = res.Observations
	}
	return *engine.Stats(), nil
}

func (r *Runner) recordError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Errors = append(r.status.Errors, err)
}

func integrationLabel(i config.Integration) string {
	if i == config.IntegrationNone {
		return "none"
	}
	return string(i)
}
