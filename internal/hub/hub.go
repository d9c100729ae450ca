// Package hub is the in-process fanout of bin events to live dashboard sessions.
// Delivery is best effort: a subscriber whose buffer is full misses the event.
package hub

import (
	"sync"
	"time"

	"bin_monitoring/internal/metrics"
	"bin_monitoring/internal/models"

	"github.com/google/uuid"
)

const defaultBuffer = 64

// Subscription is one live session. Events arrive on C until Unsubscribe or Close.
type Subscription struct {
	ID string
	C  <-chan models.Event

	ch   chan models.Event
	bins map[int64]struct{} // empty means every bin
}

// Wants reports whether the subscription follows binID.
func (s *Subscription) Wants(binID int64) bool {
	if len(s.bins) == 0 {
		return true
	}
	_, ok := s.bins[binID]
	return ok
}

// Bins returns the filter, nil when the subscription follows every bin.
func (s *Subscription) Bins() []int64 {
	if len(s.bins) == 0 {
		return nil
	}
	out := make([]int64, 0, len(s.bins))
	for id := range s.bins {
		out = append(out, id)
	}
	return out
}

type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	buffer  int
	closed  bool
	metrics *metrics.Metrics
}

func New(buffer int, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:    make(map[string]*Subscription),
		buffer:  buffer,
		metrics: m,
	}
}

// Subscribe registers a session interested in bins (all bins when none are given).
func (h *Hub) Subscribe(bins ...int64) *Subscription {
	ch := make(chan models.Event, h.buffer)
	sub := &Subscription{
		ID:   uuid.NewString(),
		C:    ch,
		ch:   ch,
		bins: make(map[int64]struct{}, len(bins)),
	}
	for _, id := range bins {
		sub.bins[id] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub.ID] = sub
	h.metrics.SetSubscribers(len(h.subs))
	return sub
}

// Unsubscribe removes the session and closes its channel. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.ID]; !ok {
		return
	}
	delete(h.subs, sub.ID)
	close(sub.ch)
	h.metrics.SetSubscribers(len(h.subs))
}

// Publish hands ev to every interested subscriber without blocking.
// It returns the number of subscribers that received it.
func (h *Hub) Publish(ev models.Event) int {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs {
		if !sub.Wants(ev.BinID) {
			continue
		}
		select {
		case sub.ch <- ev:
			delivered++
			h.metrics.EventDelivered()
		default:
			h.metrics.EventDropped()
		}
	}
	return delivered
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription; later Subscribe calls get an already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
	h.metrics.SetSubscribers(0)
}
