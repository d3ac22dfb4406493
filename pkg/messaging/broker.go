// Package messaging fans finished-episode events out to in-process sinks.
package messaging

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

var ErrSubscriberFull = errors.New("subscriber channel is full")

// SimpleBroker implements Broker. subscribers maps subscriber IDs to the
// channels that receive their messages.
type SimpleBroker struct {
	subscribers map[string]chan<- Message
	mu          sync.RWMutex
}

func NewBroker() *SimpleBroker {
	return &SimpleBroker{
		subscribers: make(map[string]chan<- Message),
	}
}

// Publish sends msg to every addressed subscriber, or to everyone but the
// sender when msg.To is empty. A full subscriber is skipped and reported; the
// remaining recipients still get the message.
func (b *SimpleBroker) Publish(msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	recipients := msg.To
	if len(recipients) == 0 {
		for id := range b.subscribers {
			if id != msg.From {
				recipients = append(recipients, id)
			}
		}
	}

	var err error
	for _, id := range recipients {
		ch, ok := b.subscribers[id]
		if !ok {
			continue
		}
		select {
		case ch <- msg:
		default:
			err = multierr.Append(err, fmt.Errorf("subscriber %s: %w", id, ErrSubscriberFull))
		}
	}
	return err
}

func (b *SimpleBroker) Subscribe(id string, ch chan<- Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; exists {
		return fmt.Errorf("subscriber %s is already registered", id)
	}
	b.subscribers[id] = ch
	return nil
}

func (b *SimpleBroker) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; !exists {
		return fmt.Errorf("subscriber %s is not registered", id)
	}
	delete(b.subscribers, id)
	return nil
}

func (b *SimpleBroker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[string]chan<- Message)
}
