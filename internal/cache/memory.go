// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package cache

import (
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	data     []byte
	expireAt time.Time // zero time means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// MemoryProvider is the in-process cache implementation. Expiration is
// lazy: expired entries are evicted when a read encounters them. An
// optional background sweep can be started for long-running processes but
// is not required for correctness.
type MemoryProvider struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// NewMemoryProvider returns an empty in-process cache.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{entries: make(map[string]memoryEntry)}
}

// Get returns the live value for key. An expired entry is evicted and
// reported absent.
func (m *MemoryProvider) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// replaced the entry since the read.
		if cur, ok := m.entries[key]; ok && cur.expired(time.Now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return e.data, true
}

// Set stores value under key. A ttl of zero means no expiry.
func (m *MemoryProvider) Set(key string, value []byte, ttl time.Duration) {
	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{data: value, expireAt: expireAt}
	m.mu.Unlock()
}

// Delete removes the entry for key.
func (m *MemoryProvider) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (m *MemoryProvider) DeleteByPrefix(prefix string) {
	m.mu.Lock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
}

// Exists reports whether key holds a live entry, evicting it when expired.
func (m *MemoryProvider) Exists(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns all live keys starting with prefix.
func (m *MemoryProvider) Keys(prefix string) []string {
	m.CleanExpired()
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

// Clear removes all entries.
func (m *MemoryProvider) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}

// Close stops the sweep goroutine, if any, and drops all entries.
func (m *MemoryProvider) Close() error {
	m.sweepOnce.Do(func() {
		if m.sweepStop != nil {
			close(m.sweepStop)
		}
	})
	m.Clear()
	return nil
}

// CleanExpired removes every expired entry in one pass.
func (m *MemoryProvider) CleanExpired() {
	now := time.Now()
	m.mu.Lock()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
}

// StartSweep runs CleanExpired on the given interval until Close. Calling
// it more than once is a no-op.
func (m *MemoryProvider) StartSweep(interval time.Duration) {
	m.mu.Lock()
	if m.sweepStop != nil {
		m.mu.Unlock()
		return
	}
	m.sweepStop = make(chan struct{})
	stop := m.sweepStop
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CleanExpired()
			case <-stop:
				return
			}
		}
	}()
}

// Len returns the number of entries, expired included.
func (m *MemoryProvider) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
