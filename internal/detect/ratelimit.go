package detect

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterCleanupInterval = 10 * time.Minute

// clientLimiter throttles scan triggers per client address.
type clientLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (l *clientLimiter) get(client string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[client]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limiters[client]; ok {
		return lim
	}
	lim = rate.NewLimiter(l.rate, l.burst)
	l.limiters[client] = lim
	return lim
}

// Allow reports whether client may trigger a scan now.
func (l *clientLimiter) Allow(client string) bool {
	return l.get(client).Allow()
}

// prune drops limiters whose bucket has refilled; they carry no state.
func (l *clientLimiter) prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for client, lim := range l.limiters {
		if lim.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, client)
		}
	}
}

func (l *clientLimiter) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

func (l *clientLimiter) runCleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.prune(now)
		}
	}
}

// clientKey identifies the caller by remote host.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
