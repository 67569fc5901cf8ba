package orderService

import (
	"Replicaide/internal/entity"
	"sync"
)

const subscriberBuffer = 8

// Hub fans applied order updates out to the subscribers of a session.
// While a session has subscribers, updates older than the last one
// published are dropped, so subscribers only see versions moving forward.
type Hub struct {
	mu        sync.Mutex
	subs      map[string]map[chan entity.OrderUpdate]struct{}
	published map[string]int64
}

func NewHub() *Hub {
	return &Hub{
		subs:      make(map[string]map[chan entity.OrderUpdate]struct{}),
		published: make(map[string]int64),
	}
}

// Subscribe returns a channel of updates for sessionID and a function that
// cancels the subscription. The channel is closed on cancel or when the
// session ends.
func (h *Hub) Subscribe(sessionID string) (<-chan entity.OrderUpdate, func()) {
	ch := make(chan entity.OrderUpdate, subscriberBuffer)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan entity.OrderUpdate]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(sessionID, ch) })
	}
}

func (h *Hub) remove(sessionID string, ch chan entity.OrderUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[sessionID]
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.subs, sessionID)
		delete(h.published, sessionID)
	}
}

// Publish never blocks. A subscriber that falls behind loses its oldest
// pending update.
func (h *Hub) Publish(u entity.OrderUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.subs[u.SessionID]) == 0 {
		return
	}
	if u.Version <= h.published[u.SessionID] {
		return
	}
	h.published[u.SessionID] = u.Version

	for ch := range h.subs[u.SessionID] {
		select {
		case ch <- u:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- u:
		default:
		}
	}
}

// Close ends every subscription of sessionID.
func (h *Hub) Close(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[sessionID] {
		close(ch)
	}
	delete(h.subs, sessionID)
	delete(h.published, sessionID)
}
