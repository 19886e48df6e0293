package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/domain"
)

// sweepEvery is the number of writes between opportunistic sweeps.
const sweepEvery = 1000

type memEntry struct {
	rec       domain.CachedTransform
	expiresAt time.Time
}

// Memory is a process-local Store with per-entry expiry.
//
// Expired entries are filtered on read and evicted by a sweep that runs every
// sweepEvery writes, which keeps memory bounded without a background goroutine.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memEntry
	writes  uint64
}

// NewMemory returns an empty in-memory store whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memEntry),
	}
}

// Get returns the record for key if present and not expired.
func (m *Memory) Get(_ context.Context, key string) (*domain.CachedTransform, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	rec := e.rec
	return &rec, true, nil
}

// Put stores rec under key, replacing any previous record.
func (m *Memory) Put(_ context.Context, key string, rec domain.CachedTransform) error {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Sweep before inserting so the new entry is never considered.
	m.writes++
	if m.writes >= sweepEvery {
		for k, e := range m.entries {
			if !now.Before(e.expiresAt) {
				delete(m.entries, k)
			}
		}
		m.writes = 0
	}

	m.entries[key] = memEntry{rec: rec, expiresAt: now.Add(m.ttl)}
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
