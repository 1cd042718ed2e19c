// Package transport carries host and browser messages: an in-process SSE
// broker, Redis pub/sub and Azure Storage queues.
package transport

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// Broker fans payloads out to subscribers. Slow subscribers miss messages
// rather than block publishers.
type Broker struct {
	mu      sync.Mutex
	subs    map[chan []byte]struct{}
	keep    int
	pending [][]byte
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan []byte]struct{})}
}

// NewBacklogBroker creates a broker that holds up to n payloads published
// while nobody is subscribed and hands them to the next subscriber.
func NewBacklogBroker(n int) *Broker {
	b := NewBroker()
	if n > subscriberBuffer {
		n = subscriberBuffer
	}
	b.keep = n
	return b
}

// Subscribe registers a new subscriber channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	b.mu.Lock()
	for _, p := range b.pending {
		ch <- p
	}
	b.pending = nil
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes ch. It does not close the channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Subscribers returns the number of connected subscribers.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish delivers payload to every subscriber with room in its buffer and
// returns how many received it.
func (b *Broker) Publish(payload []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 && b.keep > 0 {
		if len(b.pending) == b.keep {
			b.pending = b.pending[1:]
		}
		b.pending = append(b.pending, payload)
		return 0
	}
	delivered := 0
	for ch := range b.subs {
		select {
		case ch <- payload:
			delivered++
		default:
		}
	}
	return delivered
}

// Send publishes payload to connected host streams.
func (b *Broker) Send(_ context.Context, payload []byte) error {
	b.Publish(payload)
	return nil
}
