package experiment

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/boristopalov/gridsim/pkg/messaging"
)

var statsHeader = []string{
	"episode", "episode_id", "worker", "steps", "successes", "collisions", "isr", "csr", "truncated",
}

type sink struct {
	id     string
	ch     chan messaging.Message
	handle func(messaging.Message) error
	finish func() error
	done   chan error
}

type sinkSet struct {
	broker *messaging.SimpleBroker
	sinks  []*sink
}

// sinkBufferPerWorker bounds how many unconsumed events each sink holds per
// rollout worker.
const sinkBufferPerWorker = 64

// openSinks subscribes the history, CSV and metrics consumers. Sinks drain
// continuously, so publishing only fails when one of them stalls.
func (r *Runner) openSinks() (*sinkSet, error) {
	set := &sinkSet{broker: r.broker}
	buffer := sinkBuffer(r.cfg.Episodes, r.cfg.Workers)

	set.add(&sink{
		id: "history",
		handle: func(msg messaging.Message) error {
			r.history.Store(msg.Event.Stats)
			return nil
		},
	}, buffer)

	if r.exporter != nil {
		set.add(&sink{
			id: "metrics",
			handle: func(msg messaging.Message) error {
				r.exporter.ObserveEpisode(msg.Event.Integration, msg.Event.Stats)
				return nil
			},
		}, buffer)
	}

	if path := r.cfg.Logging.StatsPath; path != "" {
		s, err := newStatsSink(path, r.logger)
		if err != nil {
			set.close()
			return nil, err
		}
		set.add(s, buffer)
	}
	return set, nil
}

// sinkBuffer is the per-sink channel capacity: never more than the run's
// episode count, never more than sinkBufferPerWorker per worker.
func sinkBuffer(episodes, workers int) int {
	return max(1, min(episodes, workers*sinkBufferPerWorker))
}

func (s *sinkSet) add(k *sink, buffer int) {
	k.ch = make(chan messaging.Message, buffer)
	k.done = make(chan error, 1)
	if err := s.broker.Subscribe(k.id, k.ch); err != nil {
		k.done <- err
		close(k.ch)
		s.sinks = append(s.sinks, k)
		return
	}
	go func() {
		var err error
		for msg := range k.ch {
			if err == nil {
				err = k.handle(msg)
			}
		}
		if k.finish != nil {
			err = multierr.Append(err, k.finish())
		}
		k.done <- err
	}()
	s.sinks = append(s.sinks, k)
}

// close detaches every sink, drains what was already published and returns
// the combined sink errors.
func (s *sinkSet) close() error {
	var err error
	for _, k := range s.sinks {
		if uerr := s.broker.Unsubscribe(k.id); uerr == nil {
			close(k.ch)
		}
	}
	for _, k := range s.sinks {
		err = multierr.Append(err, <-k.done)
	}
	return err
}

// newStatsSink writes one CSV row per finished episode, in completion order.
func newStatsSink(path string, logger *zap.Logger) (*sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create stats file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(statsHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write stats header: %w", err)
	}

	return &sink{
		id: "csv",
		handle: func(msg messaging.Message) error {
			e := msg.Event
			return w.Write([]string{
				strconv.Itoa(e.Episode),
				e.EpisodeID,
				strconv.Itoa(e.Worker),
				strconv.Itoa(e.Stats.Steps),
				strconv.Itoa(e.Stats.Successes),
				strconv.Itoa(e.Stats.Collisions),
				strconv.FormatFloat(e.Stats.ISR, 'f', 4, 64),
				strconv.FormatFloat(e.Stats.CSR, 'f', 4, 64),
				strconv.FormatBool(e.Stats.Truncated),
			})
		},
		finish: func() error {
			w.Flush()
			err := w.Error()
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				logger.Warn("stats file incomplete", zap.String("path", path), zap.Error(err))
				return fmt.Errorf("write stats %s: %w", path, err)
			}
			return nil
		},
	}, nil
}
