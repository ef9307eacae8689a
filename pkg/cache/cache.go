// Package cache provides keyed stores whose entries expire after a time to
// live. Expired entries are evicted lazily when they are read.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the time to live applied when none is configured.
const DefaultTTL = 60 * time.Second

// Store is a keyed cache with expiring entries.
type Store interface {
	// Get returns the value for key when present and not expired. Expired
	// entries are removed.
	Get(key string) (any, bool)
	// Set stores value under key for the configured time to live.
	Set(key string, value any)
	// Expire removes key.
	Expire(key string)
	// Clear removes every entry.
	Clear()
}

// Option configures a Memory cache.
type Option func(*Memory)

// WithTTL sets the time to live for new entries. Zero disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(m *Memory) {
		m.ttl = ttl
	}
}

// WithClock sets the clock used to compute expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.nowF = now
		}
	}
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Memory is an in-memory Store safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	m    map[string]entry
	ttl  time.Duration
	nowF func() time.Time
}

// NewMemory returns an empty cache using DefaultTTL unless configured
// otherwise.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		m:    make(map[string]entry),
		ttl:  DefaultTTL,
		nowF: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// TTL returns the time to live applied to new entries.
func (m *Memory) TTL() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttl
}

// SetTTL changes the time to live for entries stored from now on. Zero or a
// negative value disables caching: Set becomes a no-op and Get misses.
func (m *Memory) SetTTL(ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl = ttl
}

func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.m[key]
	ttl := m.ttl
	m.mu.RUnlock()
	if !ok || ttl <= 0 {
		return nil, false
	}
	if !e.expiresAt.After(m.nowF()) {
		m.mu.Lock()
		if current, ok := m.m[key]; ok && current.expiresAt.Equal(e.expiresAt) {
			delete(m.m, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ttl <= 0 {
		return
	}
	m.m[key] = entry{value: value, expiresAt: m.nowF().Add(m.ttl)}
}

func (m *Memory) Expire(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, key)
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m = make(map[string]entry)
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.m)
}
