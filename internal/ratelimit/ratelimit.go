// Package ratelimit guards the public write endpoints. The limiter is an
// injected capability so handlers don't care whether the state lives in a
// process-local map (default, best-effort) or in Redis (shared across
// instances).
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter answers whether one more request from key is allowed right now.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type entry struct {
	count   int
	resetAt time.Time
}

// Memory is a sliding-window-by-reset-timestamp counter keyed by client IP.
// State is process-local and resets on restart: it bounds abuse within a
// single warm instance only, not globally.
type Memory struct {
	mu         sync.Mutex
	max        int
	window     time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
	entries    map[string]*entry
	now        func() time.Time
}

// NewMemory creates an in-memory limiter allowing max requests per window
// for each key.
func NewMemory(max int, window time.Duration) *Memory {
	return &Memory{
		max:        max,
		window:     window,
		sweepEvery: time.Minute,
		entries:    make(map[string]*entry),
		now:        time.Now,
	}
}

// Allow records one request for key and reports whether it is within the
// configured ceiling. Expired keys are swept opportunistically, at most
// once per sweep interval, so memory stays bounded without a background
// timer.
func (m *Memory) Allow(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	e, ok := m.entries[key]
	if !ok || now.After(e.resetAt) {
		m.entries[key] = &entry{count: 1, resetAt: now.Add(m.window)}
		return true
	}
	e.count++
	return e.count <= m.max
}

func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.sweepEvery {
		return
	}
	m.lastSweep = now
	for k, e := range m.entries {
		if now.After(e.resetAt) {
			delete(m.entries, k)
		}
	}
}
