package app

import (
	"log/slog"
	"sync"

	"github.com/randomtoy/horobingo-go/internal/domain"
)

const subscriberBufferSize = 64

// Broadcaster fans events out to every subscriber. Slow subscribers lose
// events rather than stall the game.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[int]chan domain.Event
	nextID int
	logger *slog.Logger
}

func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[int]chan domain.Event),
		logger: logger,
	}
}

// Subscribe returns a channel of events and a function that ends the subscription.
func (b *Broadcaster) Subscribe() (<-chan domain.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan domain.Event, subscriberBufferSize)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish implements ports.EventPublisher.
func (b *Broadcaster) Publish(events ...domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, e := range events {
		for id, ch := range b.subs {
			select {
			case ch <- e:
			default:
				b.logger.Warn("subscriber buffer full, event dropped", "subscriber", id, "type", e.Type)
			}
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
