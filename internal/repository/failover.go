package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"beachrent/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverLocker uses the primary locker and switches to the fallback after a primary error.
// The primary is retried once recoveryInterval has passed.
type FailoverLocker struct {
	primary  domain.Locker
	fallback domain.Locker
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverLocker(primary, fallback domain.Locker, logger *zerolog.Logger) *FailoverLocker {
	return &FailoverLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (l *FailoverLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !l.isDown.Load() || l.shouldRetryPrimary() {
		ok, err := l.primary.Acquire(ctx, key, ttl)
		if err == nil {
			if l.isDown.Swap(false) {
				l.logger.Info().Msg("Primary locker recovered")
			}
			return ok, nil
		}
		l.logger.Error().Err(err).Str("key", key).Msg("Primary locker failed, falling back to memory")
		l.markDown()
	}

	return l.fallback.Acquire(ctx, key, ttl)
}

func (l *FailoverLocker) markDown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.isDown.Store(true)
	l.lastCheck = l.now()
}

func (l *FailoverLocker) shouldRetryPrimary() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now().Sub(l.lastCheck) > recoveryInterval
}
