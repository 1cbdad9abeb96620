package service

import (
	"sync"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter throttles events per key (for example per phone number).
type KeyedRateLimiter struct {
	limiters sync.Map
	limit    rate.Limit
	burst    int
}

// NewKeyedRateLimiter allows perMinute events per key with the given burst.
// A non-positive perMinute disables limiting.
func NewKeyedRateLimiter(perMinute float64, burst int) *KeyedRateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst <= 0 {
		burst = 1
	}
	return &KeyedRateLimiter{limit: limit, burst: burst}
}

// Allow reports whether an event for key may happen now.
func (l *KeyedRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	return l.getLimiter(key).Allow()
}

func (l *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	lim := rate.NewLimiter(l.limit, l.burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}
