package handler

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client address. A bucket idle for
// longer than it takes to refill completely is indistinguishable from a new
// one, so such buckets are dropped.
type ipRateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*limiterEntry
	limit      rate.Limit
	burst      int
	idle       time.Duration
	lastSweep  time.Time
	trustProxy bool
	now        func() time.Time
}

func newIPRateLimiter(perMinute int, burst int, trustProxy bool) *ipRateLimiter {
	perMinute = max(perMinute, 1)
	burst = max(burst, 1)

	return &ipRateLimiter{
		limiters:   make(map[string]*limiterEntry),
		limit:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:      burst,
		idle:       time.Duration(burst) * time.Minute / time.Duration(perMinute),
		trustProxy: trustProxy,
		now:        time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// sweep must be called with mu held.
func (l *ipRateLimiter) sweep(now time.Time) {
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idle {
			delete(l.limiters, ip)
		}
	}
	l.lastSweep = now
}

// clientIP returns the peer address. X-Forwarded-For is only honoured behind a
// trusted reverse proxy, and then only its last entry, which is the one that
// proxy appended itself.
func (l *ipRateLimiter) clientIP(r *http.Request) string {
	if l.trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			parts := strings.Split(forwarded, ",")
			if ip := strings.TrimSpace(parts[len(parts)-1]); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
