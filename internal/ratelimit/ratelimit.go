// Package ratelimit counts attempts per key within a time window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter reports whether one more attempt for key is allowed and records
// it when it is.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is a process-local sliding window limiter.
type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	now     func() time.Time
	entries map[string][]time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		window:  window,
		max:     limit,
		now:     time.Now,
		entries: make(map[string][]time.Time),
	}
}

func (l *Memory) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	ts := l.entries[key]

	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	ts = kept
	if len(ts) >= l.max {
		l.entries[key] = ts
		return false, nil
	}

	ts = append(ts, now)
	l.entries[key] = ts
	l.sweep(cutoff)
	return true, nil
}

// sweep drops keys whose attempts have all expired once the map is large.
func (l *Memory) sweep(cutoff time.Time) {
	if len(l.entries) < 1024 {
		return
	}
	for key, ts := range l.entries {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(l.entries, key)
		}
	}
}
