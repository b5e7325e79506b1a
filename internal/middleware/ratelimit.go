package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vastralaya/storefront/internal/httpx"
)

// RateLimiter keeps one token bucket per client address. Idle entries
// are dropped after expiry so the map does not grow unbounded.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	expiry   time.Duration
	lastSeen func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(limit rate.Limit, burst int, expiry time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients:  make(map[string]*clientLimiter),
		limit:    limit,
		burst:    burst,
		expiry:   expiry,
		lastSeen: time.Now,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(rl.expiry)
		rl.mu.Lock()
		now := rl.lastSeen()
		for addr, c := range rl.clients {
			if now.Sub(c.lastSeen) > rl.expiry {
				delete(rl.clients, addr)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	c, ok := rl.clients[addr]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[addr] = c
	}
	c.lastSeen = rl.lastSeen()
	return c.limiter.Allow()
}

// Middleware enforces the per-client limit keyed by remote IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := r.RemoteAddr
		if host, _, err := net.SplitHostPort(addr); err == nil {
			addr = host
		}
		if !rl.allow(addr) {
			httpx.JSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
