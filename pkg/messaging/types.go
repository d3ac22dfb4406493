package messaging

import (
	"time"

	"github.com/boristopalov/gridsim/pkg/core"
)

// EpisodeEvent announces one finished episode.
type EpisodeEvent struct {
	RunID       string
	Worker      int
	Episode     int
	EpisodeID   string
	Integration string
	Stats       core.EpisodeStats
}

// Message is an envelope routed by the broker. An empty To broadcasts to every
// subscriber except From.
type Message struct {
	From      string
	To        []string
	Event     EpisodeEvent
	Timestamp time.Time
}

// Broker routes finished-episode messages from rollout workers to sinks.
type Broker interface {
	// Publish delivers msg to its recipients without blocking.
	Publish(msg Message) error
	// Subscribe registers a sink under id.
	Subscribe(id string, ch chan<- Message) error
	// Unsubscribe removes a sink.
	Unsubscribe(id string) error
}
