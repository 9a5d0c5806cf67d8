package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count     int
	windowEnd time.Time
}

// MemoryStore keeps counters in process. Only correct for a single instance.
type MemoryStore struct {
	mu        sync.Mutex
	clients   map[string]*bucket
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (Hit, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now, window)

	b, ok := s.clients[key]
	if !ok || !now.Before(b.windowEnd) {
		b = &bucket{windowEnd: now.Add(window)}
		s.clients[key] = b
	}
	b.count++

	return Hit{Count: b.count, ResetAt: b.windowEnd}, nil
}

// sweep drops expired buckets at most once per window. Caller holds mu.
func (s *MemoryStore) sweep(now time.Time, window time.Duration) {
	if now.Sub(s.lastSweep) < window {
		return
	}
	for key, b := range s.clients {
		if !now.Before(b.windowEnd) {
			delete(s.clients, key)
		}
	}
	s.lastSweep = now
}

func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
