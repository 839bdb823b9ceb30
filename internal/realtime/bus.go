package realtime

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"community-service/internal/models"
)

// OpResync is delivered to every subscriber after the change feed had a gap.
const OpResync = "RESYNC"

// Filter narrows a topic to rows whose Column equals Value.
type Filter struct {
	Column string
	Value  string
}

// Topic selects change notifications by table and optional row filter.
type Topic struct {
	Table  string
	Filter *Filter
}

func (t Topic) String() string {
	if t.Filter == nil {
		return t.Table
	}
	return fmt.Sprintf("%s:%s=eq.%s", t.Table, t.Filter.Column, t.Filter.Value)
}

func (t Topic) matches(ch models.Change) bool {
	if ch.Table != t.Table {
		return false
	}
	if t.Filter == nil {
		return true
	}
	v, ok := ch.Record[t.Filter.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == t.Filter.Value
}

// Handler receives matching changes. It runs on the publisher's goroutine
// and must not block.
type Handler func(models.Change)

// Subscription is a live interest in a topic.
type Subscription struct {
	bus     *Bus
	id      uint64
	topic   Topic
	handler Handler
	closed  atomic.Bool
}

// Topic returns what the subscription listens to.
func (s *Subscription) Topic() Topic { return s.topic }

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.bus.remove(s)
}

// Bus fans change notifications out to subscribers, keyed by table.
type Bus struct {
	rooms map[string]map[uint64]*Subscription
	next  uint64
	mu    sync.RWMutex
	log   zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		rooms: make(map[string]map[uint64]*Subscription),
		log:   log,
	}
}

// Subscribe registers handler for topic.
func (b *Bus) Subscribe(topic Topic, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	sub := &Subscription{bus: b, id: b.next, topic: topic, handler: handler}
	if _, ok := b.rooms[topic.Table]; !ok {
		b.rooms[topic.Table] = make(map[uint64]*Subscription)
	}
	b.rooms[topic.Table][sub.id] = sub
	b.log.Debug().Str("topic", topic.String()).Uint64("sub", sub.id).Msg("subscribed")
	return sub
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.rooms[sub.topic.Table]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(b.rooms, sub.topic.Table)
		}
	}
	b.log.Debug().Str("topic", sub.topic.String()).Uint64("sub", sub.id).Msg("unsubscribed")
}

// Publish delivers ch to every matching subscriber.
func (b *Bus) Publish(ch models.Change) {
	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.rooms[ch.Table]))
	for _, sub := range b.rooms[ch.Table] {
		if sub.topic.matches(ch) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		if sub.closed.Load() {
			continue
		}
		sub.handler(ch)
	}
}

// Resync delivers an OpResync change to every subscriber.
func (b *Bus) Resync() {
	b.mu.RLock()
	var targets []*Subscription
	for _, subs := range b.rooms {
		for _, sub := range subs {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		if sub.closed.Load() {
			continue
		}
		sub.handler(models.Change{Table: sub.topic.Table, Op: OpResync})
	}
}

// Count returns the number of live subscriptions.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.rooms {
		n += len(subs)
	}
	return n
}
