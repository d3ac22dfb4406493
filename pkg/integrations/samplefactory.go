package integrations

import (
	"github.com/boristopalov/gridsim/pkg/core"
	"github.com/boristopalov/gridsim/pkg/spaces"
)

// AgentInfo is the per-agent info record of the SampleFactory convention.
// EpisodeExtraStats is set on every agent for the step that ends an episode.
type AgentInfo struct {
	core.Info
	EpisodeExtraStats *core.EpisodeStats
}

// SampleFactoryEnv is the vectorized multi-agent convention with automatic
// reset after full termination.
type SampleFactoryEnv struct {
	*session
	auto *AutoReset
}

func (s *SampleFactoryEnv) NumAgents() int     { return s.cfg.NumAgents }
func (s *SampleFactoryEnv) IsMultiagent() bool { return true }

func (s *SampleFactoryEnv) ObservationSpace() spaces.Box { return observationSpace(s.session) }
func (s *SampleFactoryEnv) ActionSpace() spaces.Discrete {
	return spaces.Discrete{N: core.NumActions}
}

// SampleActions draws one uniform legal action per agent.
func (s *SampleFactoryEnv) SampleActions() []core.Action {
	return s.sampleActions()
}

func (s *SampleFactoryEnv) Reset(seed *int64) ([][]float32, error) {
	return s.auto.Reset(seed)
}

// Step advances every agent. When the previous call ended the episode, a new
// one is started first and the actions apply to it.
func (s *SampleFactoryEnv) Step(actions []core.Action) ([][]float32, []float64, []bool, []AgentInfo, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, nil, nil, nil, err
	}
	res, err := s.auto.Step(actions)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	infos := make([]AgentInfo, len(res.Dones))
	for i := range infos {
		infos[i] = AgentInfo{Info: res.Info}
		if res.Info.EpisodeStats != nil {
			stats := *res.Info.EpisodeStats
			infos[i].EpisodeExtraStats = &stats
		}
	}
	return res.Observations, res.Rewards, res.Dones, infos, nil
}
