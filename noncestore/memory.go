package noncestore

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/vitalvas/hawk"
)

const (
	// DefaultTTL bounds how long a nonce is remembered. It should be at
	// least twice the server's timestamp skew window, since requests
	// outside that window are rejected on timestamp alone.
	DefaultTTL = 10 * time.Minute

	// DefaultCapacity bounds the number of remembered nonces. The
	// oldest entries are evicted first when the bound is hit.
	DefaultCapacity = 65536
)

// MemoryConfig configures a Memory store.
type MemoryConfig struct {
	// TTL overrides DefaultTTL.
	TTL time.Duration

	// Capacity overrides DefaultCapacity.
	Capacity int

	// Now supplies the clock. Defaults to time.Now.
	Now func() time.Time
}

// Memory is an in-process nonce store: a map for membership plus an
// insertion-ordered list for TTL and capacity eviction. Check-and-record
// is atomic under one lock, so concurrent duplicates cannot both pass.
type Memory struct {
	ttl      time.Duration
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
}

type memoryEntry struct {
	key string
	at  time.Time
}

// NewMemory creates a Memory store, applying defaults for zero fields.
func NewMemory(cfg MemoryConfig) *Memory {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Memory{
		ttl:      ttl,
		capacity: capacity,
		now:      now,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Check implements hawk.NonceCheckFunc: it records the nonce and returns
// nil when fresh, or hawk.ErrNonceReplay when the same (keyID, nonce,
// ts) combination was already seen within the TTL window.
func (m *Memory) Check(_ context.Context, keyID, nonce string, ts time.Time) error {
	key := keyID + "\x00" + nonce + "\x00" + ts.UTC().Format(time.RFC3339)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictExpired(now.Add(-m.ttl))

	if _, seen := m.entries[key]; seen {
		return hawk.ErrNonceReplay
	}

	for m.order.Len() >= m.capacity {
		m.evictFront()
	}

	m.entries[key] = m.order.PushBack(memoryEntry{key: key, at: now})

	return nil
}

// Len reports the number of currently remembered nonces.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.order.Len()
}

func (m *Memory) evictExpired(cutoff time.Time) {
	for {
		front := m.order.Front()
		if front == nil {
			return
		}

		entry := front.Value.(memoryEntry)
		if !entry.at.Before(cutoff) {
			return
		}

		m.order.Remove(front)
		delete(m.entries, entry.key)
	}
}

func (m *Memory) evictFront() {
	front := m.order.Front()
	if front == nil {
		return
	}

	entry := front.Value.(memoryEntry)
	m.order.Remove(front)
	delete(m.entries, entry.key)
}
