package orderRepository

import (
	"Replicaide/internal/api/order"
	"Replicaide/internal/entity"
	"context"
	"sync"
	"time"
)

const DefaultSessionTTL = 30 * time.Minute

// MutateFunc edits a session in place. Returning false leaves the stored
// session untouched.
type MutateFunc func(s *entity.VoiceSession) (bool, error)

// SessionStore holds voice sessions for their lifetime. Update is atomic
// with respect to other Updates of the same session and refreshes the TTL
// when it writes.
type SessionStore interface {
	Create(ctx context.Context, s entity.VoiceSession) error
	Get(ctx context.Context, id string) (entity.VoiceSession, error)
	Update(ctx context.Context, id string, fn MutateFunc) (entity.VoiceSession, bool, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session   entity.VoiceSession
	expiresAt time.Time
}

type memorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

// NewMemorySessionStore keeps sessions in process. Expired sessions are
// dropped lazily on access.
func NewMemorySessionStore(ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &memorySessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
	}
}

func (m *memorySessionStore) Create(_ context.Context, s entity.VoiceSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = memoryEntry{session: cloneSession(s), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *memorySessionStore) Get(_ context.Context, id string) (entity.VoiceSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(id)
	if !ok {
		return entity.VoiceSession{}, order.ErrSessionNotFound
	}
	return cloneSession(entry.session), nil
}

func (m *memorySessionStore) Update(_ context.Context, id string, fn MutateFunc) (entity.VoiceSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(id)
	if !ok {
		return entity.VoiceSession{}, false, order.ErrSessionNotFound
	}

	next := cloneSession(entry.session)
	changed, err := fn(&next)
	if err != nil {
		return entity.VoiceSession{}, false, err
	}
	if !changed {
		return cloneSession(entry.session), false, nil
	}

	m.sessions[id] = memoryEntry{session: next, expiresAt: m.now().Add(m.ttl)}
	return cloneSession(next), true, nil
}

func (m *memorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lookup(id); !ok {
		return order.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *memorySessionStore) lookup(id string) (memoryEntry, bool) {
	entry, ok := m.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.sessions, id)
		return memoryEntry{}, false
	}
	return entry, true
}

// cloneSession copies the slices and the order so callers never share
// memory with the stored value.
func cloneSession(s entity.VoiceSession) entity.VoiceSession {
	out := s
	if s.Transcript != nil {
		out.Transcript = append([]entity.TranscriptEntry(nil), s.Transcript...)
	}
	if s.Order != nil {
		o := *s.Order
		if s.Order.Items != nil {
			o.Items = append([]entity.OrderItem(nil), s.Order.Items...)
		}
		out.Order = &o
	}
	return out
}
