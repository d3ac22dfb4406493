// Package integrations re-exposes the episode engine under the calling
// conventions of external learning frameworks. MakeEnv picks exactly one
// adapter per integration selector; every adapter owns one engine.
package integrations

import (
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/boristopalov/gridsim/pkg/config"
	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/environment"
	"github.com/boristopalov/gridsim/pkg/grid"
)

// Env is the common surface of every adapter. Callers type-switch on the
// concrete adapter (*GymEnv, *SampleFactoryEnv, *PettingZooEnv, *PyMARLEnv)
// to reach the convention-specific methods.
type Env interface {
	Integration() config.Integration
	GridConfig() config.GridConfig
}

type options struct {
	logger    *zap.Logger
	generator grid.Generator
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithGenerator swaps the map generator of the wrapped engine.
func WithGenerator(g grid.Generator) Option {
	return func(o *options) {
		o.generator = g
	}
}

// MakeEnv validates cfg and builds the adapter its integration selects. No
// episode is started; adapters reset their engine on first use.
func MakeEnv(cfg config.GridConfig, opts ...Option) (Env, error) {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Integration {
	case config.IntegrationNone, config.IntegrationGym:
		s, err := newSession(cfg, o)
		if err != nil {
			return nil, err
		}
		return &GymEnv{session: s}, nil
	case config.IntegrationSampleFactory:
		s, err := newSession(cfg, o)
		if err != nil {
			return nil, err
		}
		return &SampleFactoryEnv{session: s, auto: NewAutoReset(s.engine)}, nil
	case config.IntegrationPettingZoo:
		s, err := newSession(cfg, o)
		if err != nil {
			return nil, err
		}
		return newPettingZoo(s), nil
	case config.IntegrationPyMARL:
		s, err := newSession(cfg, o)
		if err != nil {
			return nil, err
		}
		return &PyMARLEnv{session: s}, nil
	default:
		return nil, fmt.Errorf("integration %q: %w", cfg.Integration, core.ErrNotSupported)
	}
}

// session is the engine plus the adapter-owned generator used for action sampling.
type session struct {
	cfg    config.GridConfig
	engine *environment.Engine
	rng    *rand.Rand
	logger *zap.Logger
}

func newSession(cfg config.GridConfig, o *options) (*session, error) {
	logger := o.logger.With(zap.String("integration", string(cfg.Integration)))

	engineOpts := []environment.Option{environment.WithLogger(logger)}
	if o.generator != nil {
		engineOpts = append(engineOpts, environment.WithGenerator(o.generator))
	}
	engine, err := environment.NewEngine(cfg, engineOpts...)
	if err != nil {
		return nil, err
	}

	seed := uint64(time.Now().UnixNano())
	if cfg.Seed != nil {
		seed = uint64(*cfg.Seed)
	}
	return &session{
		cfg:    cfg,
		engine: engine,
		rng:    rand.New(rand.NewPCG(seed, 1)),
		logger: logger,
	}, nil
}

func (s *session) Integration() config.Integration { return s.cfg.Integration }
func (s *session) GridConfig() config.GridConfig   { return s.cfg }

// ensureStarted resets the engine if no episode has been started yet.
func (s *session) ensureStarted() error {
	if s.engine.Started() {
		return nil
	}
	_, err := s.engine.Reset(nil)
	return err
}

func (s *session) sampleActions() []core.Action {
	actions := make([]core.Action, s.cfg.NumAgents)
	for i := range actions {
		actions[i] = core.Action(s.rng.IntN(core.NumActions))
	}
	return actions
}
