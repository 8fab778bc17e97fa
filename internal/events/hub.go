// Package events is the in-process pub/sub used by the webhook server and
// dispatcher to surface pipeline activity to observers (the watch TUI, the
// SSE endpoint).
package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Pipeline event types published by the webhook server and dispatcher.
const (
	MessageReceived = "message.received"
	MessageStored   = "message.stored"
	MessageFetched  = "message.fetched"
	MessageFailed   = "message.failed"
	ReplySent       = "reply.sent"
)

type Event struct {
	ID   int64     `json:"id"`
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data []byte    `json:"data"` // JSON payload
}

// Hub fans events out to subscribers and keeps a bounded replay buffer so
// late clients can catch up.
type Hub struct {
	nextID atomic.Int64

	mu       sync.Mutex
	buffer   []Event // oldest first
	capacity int

	subs      map[int]chan Event
	nextSubID int
}

func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		buffer:   make([]Event, 0, capacity),
		capacity: capacity,
		subs:     make(map[int]chan Event),
	}
}

// Publish records the event and delivers it to current subscribers. data is
// marshaled to JSON; a nil or unmarshalable payload becomes "{}".
func (h *Hub) Publish(eventType string, data any) {
	payload := []byte("{}")
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = b
		}
	}

	ev := Event{
		ID:   h.nextID.Add(1),
		Type: eventType,
		At:   time.Now().UTC(),
		Data: payload,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.buffer = append(h.buffer, ev)
	if len(h.buffer) > h.capacity {
		h.buffer = h.buffer[len(h.buffer)-h.capacity:]
	}

	for _, ch := range h.subs {
		// Don't let slow clients block producers.
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// to release it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, 128)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// SnapshotSince returns buffered events with ID > lastID, oldest-first.
// lastID 0 returns the whole buffer.
func (h *Hub) SnapshotSince(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, len(h.buffer))
	for _, ev := range h.buffer {
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}
