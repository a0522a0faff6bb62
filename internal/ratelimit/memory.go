package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type entry struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
	dead    bool // removed from the map by Sweep
}

// Memory is an in-process fixed-window limiter. Each identifier has its own
// lock, so callers only contend with requests for the same identifier.
type Memory struct {
	entries sync.Map // string -> *entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Allow(_ context.Context, identifier string, max int, window time.Duration) (Decision, error) {
	for {
		v, _ := m.entries.LoadOrStore(identifier, &entry{})
		e := v.(*entry)

		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		d := e.hit(m.now(), max, window)
		e.mu.Unlock()
		return d, nil
	}
}

func (e *entry) hit(now time.Time, max int, window time.Duration) Decision {
	if e.count == 0 || now.After(e.resetAt) {
		e.count = 1
		e.resetAt = now.Add(window)
		return Decision{Allowed: true, Remaining: max - 1}
	}
	if e.count >= max {
		return Decision{Allowed: false, RetryAfter: e.resetAt.Sub(now)}
	}
	e.count++
	return Decision{Allowed: true, Remaining: max - e.count}
}

// Sweep deletes entries whose window has passed and returns how many went.
func (m *Memory) Sweep() int {
	now := m.now()
	removed := 0
	m.entries.Range(func(key, v any) bool {
		if m.evict(key, v.(*entry), now) {
			removed++
		}
		return true
	})
	return removed
}

// evict removes e if it is still the entry stored under key and its window
// has passed. A concurrent sweep may already have replaced it with a fresh
// entry under the same key, which must survive.
func (m *Memory) evict(key any, e *entry, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead || !now.After(e.resetAt) {
		return false
	}
	if !m.entries.CompareAndDelete(key, e) {
		return false
	}
	e.dead = true
	return true
}

// StartSweeper runs Sweep every interval until done is closed.
func (m *Memory) StartSweeper(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					slog.Debug("rate limit sweep", "removed", n)
				}
			case <-done:
				return
			}
		}
	}()
}
