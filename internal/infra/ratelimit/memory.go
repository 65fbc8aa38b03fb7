package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"coffeeshop/internal/domain"
)

const defaultMaxTrackedKeys = 10000

// memoryLimiter is a process-local fixed-window counter. Suitable for a
// single instance; multi-instance deployments should use the redis
// limiter so the window is shared.
type memoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
	maxKeys int
}

type window struct {
	count int
	endAt time.Time
}

func NewMemoryLimiter(now func() time.Time) domain.RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &memoryLimiter{
		now:     now,
		windows: make(map[string]*window),
		maxKeys: defaultMaxTrackedKeys,
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int, windowLen time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.windows[key]
	if ok && now.After(current.endAt) {
		delete(m.windows, key)
		ok = false
	}
	if !ok {
		if len(m.windows) >= m.maxKeys {
			m.evictExpired(now)
		}
		if len(m.windows) >= m.maxKeys {
			return domain.RateLimitDecision{}, errors.New("rate limiter key capacity exceeded")
		}
		current = &window{endAt: now.Add(windowLen)}
		m.windows[key] = current
	}

	if current.count >= limit {
		return domain.RateLimitDecision{
			Allowed: false,
			Limit:   limit,
			ResetAt: current.endAt,
		}, nil
	}
	current.count++
	return domain.RateLimitDecision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - current.count,
		ResetAt:   current.endAt,
	}, nil
}

func (m *memoryLimiter) evictExpired(now time.Time) {
	for key, current := range m.windows {
		if now.After(current.endAt) {
			delete(m.windows, key)
		}
	}
}
