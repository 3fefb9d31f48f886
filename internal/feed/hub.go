// Package feed fans new decisions out to live subscribers.
package feed

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/metrics"
	"github.com/glucorisk/backend/pkg/logger"
)

const defaultBuffer = 16

type Event struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	TraceID     string    `json:"trace_id"`
	Prediction  int       `json:"prediction"`
	Probability float64   `json:"probability"`
	ModelUsed   string    `json:"model_used"`
	Diagnosis   string    `json:"diagnosis"`
	CreatedAt   time.Time `json:"created_at"`
}

type Subscription struct {
	ch   chan Event
	once sync.Once
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// Hub never blocks a publisher: a subscriber whose buffer is full misses
// the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.close()
		return sub
	}
	h.subs[sub] = struct{}{}
	metrics.FeedSubscribers.Set(float64(len(h.subs)))
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		sub.close()
		metrics.FeedSubscribers.Set(float64(len(h.subs)))
	}
}

// Publish returns how many subscribers received ev.
func (h *Hub) Publish(ev Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			logger.Debug("Feed subscriber lagging, event dropped", zap.Int64("id", ev.ID))
		}
	}
	return delivered
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are closed at once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for sub := range h.subs {
		sub.close()
		delete(h.subs, sub)
	}
	metrics.FeedSubscribers.Set(0)
}
