package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is a single-process Locker used when Redis is not configured or down.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiresAt, ok := l.locks[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	l.locks[key] = now.Add(ttl)

	for k, exp := range l.locks {
		if !now.Before(exp) {
			delete(l.locks, k)
		}
	}
	return true, nil
}
