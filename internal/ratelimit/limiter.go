package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter enforces a per-client request rate on the collector API. Clients
// are keyed by remote address; a misbehaving extension cannot starve the
// keystroke pipeline.
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewLimiter allows requestsPerMinute sustained per client with the given
// burst headroom.
func NewLimiter(requestsPerMinute, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
	}
}

func (l *Limiter) limiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[client]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[client] = lim
	}
	return lim
}

// Allow reports whether the client may make a request now.
func (l *Limiter) Allow(client string) bool {
	return l.limiter(client).Allow()
}

// Tokens returns the client's remaining burst capacity.
func (l *Limiter) Tokens(client string) float64 {
	return l.limiter(client).Tokens()
}
