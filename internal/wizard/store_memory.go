package wizard

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps wizard sessions in process memory. Idle sessions expire
// after ttl; every successful Get extends the deadline.
type MemoryStore struct {
	mu       sync.Mutex
	items    map[string]storeEntry
	ttl      time.Duration
	now      func() time.Time
	onExpire func(*Session)
}

type storeEntry struct {
	sess      *Session
	expiresAt time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemoryStore{
		items: make(map[string]storeEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// OnExpire registers a callback for sessions dropped by Sweep or a stale Get.
func (m *MemoryStore) OnExpire(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = fn
}

// Put stores a session.
func (m *MemoryStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = storeEntry{sess: s, expiresAt: m.now().Add(m.ttl)}
}

// Get returns a live session and refreshes its deadline.
func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.Lock()
	entry, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		return nil, false
	}
	now := m.now()
	if now.After(entry.expiresAt) {
		delete(m.items, id)
		cb := m.onExpire
		m.mu.Unlock()
		if cb != nil {
			cb(entry.sess)
		}
		return nil, false
	}
	entry.expiresAt = now.Add(m.ttl)
	m.items[id] = entry
	m.mu.Unlock()
	return entry.sess, true
}

// Delete drops a session. It reports whether the session existed.
func (m *MemoryStore) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	delete(m.items, id)
	return ok
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Sweep removes expired sessions and returns how many were dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	now := m.now()
	var expired []*Session
	for id, entry := range m.items {
		if now.After(entry.expiresAt) {
			expired = append(expired, entry.sess)
			delete(m.items, id)
		}
	}
	cb := m.onExpire
	m.mu.Unlock()

	if cb != nil {
		for _, s := range expired {
			cb(s)
		}
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
