package cache

import (
	"sync"
	"time"
)

// Cache defines the expiring key-value store consumed by the read-through
// orchestrator, the token manager, and handlers.
type Cache interface {
	Get(key string) (any, bool)                   // Get returns the value for key, or false if absent or expired
	Set(key string, value any, ttl time.Duration) // Set stores value under key for ttl; atomic replacement
	Has(key string) bool                          // Has reports whether key holds an unexpired value
	Delete(key string)                            // Delete evicts key immediately
	Len() int                                     // Len returns the number of physically retained entries
	Close()                                       // Close stops the janitor goroutine
}

// entry is a value with its expiry deadline. Entries are never mutated after
// insertion; Set replaces them wholesale.
type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Memory is the in-process [Cache] implementation.
//
// A single mutex guards the map. Readers that find an expired entry treat it
// as absent and remove it; a janitor goroutine sweeps the whole map on an
// interval so untouched entries do not pin memory.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

// MemoryOpts configures a [Memory] cache.
type MemoryOpts struct {
	DefaultTTL    time.Duration // applied when Set receives a non-positive ttl
	SweepInterval time.Duration // janitor interval; non-positive disables the sweep
}

// NewMemory creates a [Memory] cache and starts its janitor when a sweep
// interval is configured.
func NewMemory(opts MemoryOpts) *Memory {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}

	m := &Memory{
		entries:    make(map[string]entry),
		defaultTTL: opts.DefaultTTL,
		stop:       make(chan struct{}),
	}

	if opts.SweepInterval > 0 {
		go m.janitor(opts.SweepInterval)
	}

	return m
}

// Get returns the value stored under key. Expired entries are removed on the
// way out and reported as absent.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}

	if e.expired(time.Now()) {
		delete(m.entries, key)
		return nil, false
	}

	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl falls back to the
// cache's default. Concurrent writers race with last-write-wins semantics.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Has reports whether key holds an unexpired value.
func (m *Memory) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete evicts key immediately.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

// Len returns the number of physically retained entries, including entries
// that have expired but not yet been swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// Close stops the janitor goroutine. Safe to call more than once.
func (m *Memory) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep(time.Now())
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}
