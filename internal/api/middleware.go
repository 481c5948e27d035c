package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pokedexhub/pokedex-data/internal/api/respond"
)

// TimingMiddleware adds an X-Process-Time header to every response.
func TimingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)
		w.Header().Set("X-Process-Time", fmt.Sprintf("%.2fms", float64(elapsed.Microseconds())/1000.0))
	})
}

// clientLimiters holds one token bucket per client IP. Buckets are created
// on first sight and refill at requestsPerWindow spread over the window.
type clientLimiters struct {
	mu      sync.Mutex
	byIP    map[string]*rate.Limiter
	refill  rate.Limit
	burst   int
	retryIn string // whole seconds, sent as Retry-After
}

func newClientLimiters(requestsPerWindow int, window time.Duration) *clientLimiters {
	return &clientLimiters{
		byIP:    make(map[string]*rate.Limiter),
		refill:  rate.Limit(float64(requestsPerWindow) / window.Seconds()),
		burst:   requestsPerWindow / 2,
		retryIn: strconv.Itoa(int(window.Seconds())),
	}
}

func (c *clientLimiters) forIP(ip string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.byIP[ip]
	if !ok {
		l = rate.NewLimiter(c.refill, c.burst)
		c.byIP[ip] = l
	}
	return l
}

// RateLimitMiddleware returns middleware that caps each client IP at
// requestsPerWindow requests per window. Rejected requests get a 429 with a
// Retry-After of one full window.
func RateLimitMiddleware(requestsPerWindow int, window time.Duration) func(http.Handler) http.Handler {
	limiters := newClientLimiters(requestsPerWindow, window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, _ := net.SplitHostPort(r.RemoteAddr)
			if ip == "" {
				ip = r.RemoteAddr
			}

			if !limiters.forIP(ip).Allow() {
				w.Header().Set("Retry-After", limiters.retryIn)
				respond.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
