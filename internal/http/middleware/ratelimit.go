package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	limiterPruneEvery = 5 * time.Minute
	limiterIdleEvict  = 10 * time.Minute
)

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// ipLimiter throttles callers by client IP with a token bucket per caller:
// up to burst requests at once, refilling at perSecond. Idle buckets are
// pruned inline on the request path, so no background goroutine is needed.
type ipLimiter struct {
	mu        sync.Mutex
	perSecond float64
	burst     float64
	clients   map[string]*tokenBucket
	lastPrune time.Time

	now func() time.Time
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	return &ipLimiter{
		perSecond: perSecond,
		burst:     float64(burst),
		clients:   make(map[string]*tokenBucket),
		now:       time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > limiterPruneEvery {
		for key, b := range l.clients {
			if now.Sub(b.seen) > limiterIdleEvict {
				delete(l.clients, key)
			}
		}
		l.lastPrune = now
	}

	b, ok := l.clients[ip]
	if !ok {
		b = &tokenBucket{tokens: l.burst}
		l.clients[ip] = b
	} else {
		b.tokens += now.Sub(b.seen).Seconds() * l.perSecond
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr from X-Real-Ip /
	// X-Forwarded-For, so RemoteAddr is the source of truth here.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit returns middleware that rejects callers exceeding perSecond
// requests (with the given burst allowance) with 429 Too Many Requests.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
