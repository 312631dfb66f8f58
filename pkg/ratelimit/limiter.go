package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key (login identifier, device id).
type KeyedLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewKeyedLimiter allows perMinute events per key with the given burst.
// A non-positive perMinute disables limiting.
func NewKeyedLimiter(perMinute, burst int) *KeyedLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

func (l *KeyedLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, exists := l.visitors[key]; exists {
		v.lastSeen = l.now()
		return v.limiter
	}

	v := &visitor{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: l.now()}
	l.visitors[key] = v
	return v.limiter
}

// Allow consumes one token for key.
func (l *KeyedLimiter) Allow(key string) bool {
	return l.getLimiter(key).AllowN(l.now(), 1)
}

// Prune forgets keys unused for longer than idle and returns how many were dropped.
func (l *KeyedLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	dropped := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			dropped++
		}
	}
	return dropped
}

// Len is the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
