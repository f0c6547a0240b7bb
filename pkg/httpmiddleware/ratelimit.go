package httpmiddleware

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the maximum number of requests allowed per window.
	Max int
	// Window is the duration of each sliding window.
	Window time.Duration
	// KeyFunc extracts the rate limit key from a request. If nil,
	// DefaultKey is used.
	KeyFunc func(*http.Request) string
	// ExemptPaths lists exact request paths that bypass the limiter.
	// Health probes go here so an aggressive client cannot starve the
	// kubelet out of its readiness checks.
	ExemptPaths []string
}

// DefaultKey buckets authenticated requests by their bearer token and
// anonymous ones by client IP. Token keying means users behind one NAT
// do not share a budget, and one user cannot dodge the limit by rotating
// source addresses.
func DefaultKey(r *http.Request) string {
	const prefix = "Bearer "
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, prefix) {
		return "tok:" + strings.TrimSpace(auth[len(prefix):])
	}
	return "ip:" + clientIP(r)
}

// bucket counts requests for one key inside a fixed window, identified
// by its index (time divided by window length). Keeping the previous
// window's final count lets take weigh it by overlap, approximating a
// true sliding window without storing per-request timestamps.
type bucket struct {
	idx       int64
	count     int
	prevCount int
}

type limiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*bucket
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = DefaultKey
	}
	return &limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
	}
}

// take records one request for key at the given time and reports whether
// it fits the budget, along with the remaining budget and when the
// current window rolls over.
func (l *limiter) take(key string, now time.Time) (remaining int, resetAt time.Time, ok bool) {
	size := int64(l.cfg.Window)
	idx := now.UnixNano() / size

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{idx: idx}
		l.buckets[key] = b
	}

	switch {
	case b.idx == idx:
		// Same window, nothing to roll.
	case b.idx == idx-1:
		b.prevCount = b.count
		b.count = 0
		b.idx = idx
	default:
		// Idle long enough that the previous window no longer overlaps.
		b.prevCount = 0
		b.count = 0
		b.idx = idx
	}

	// Weigh the previous window by how much of the sliding window it
	// still covers: 1.0 right at rollover, 0.0 at the end of the window.
	weight := 1 - float64(now.UnixNano()%size)/float64(size)
	used := float64(b.prevCount)*weight + float64(b.count)
	resetAt = time.Unix(0, (idx+1)*size)

	if used >= float64(l.cfg.Max) {
		return 0, resetAt, false
	}

	b.count++
	remaining = l.cfg.Max - int(used) - 1
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetAt, true
}

// evict drops buckets so stale they no longer influence any decision.
func (l *limiter) evict(now time.Time) {
	idx := now.UnixNano() / int64(l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if b.idx < idx-1 {
			delete(l.buckets, key)
		}
	}
}

// RateLimit returns a middleware enforcing a per-key sliding window rate
// limit. Rejected requests get 429 with a JSON body; every limited
// response carries X-RateLimit-Limit, X-RateLimit-Remaining, and
// X-RateLimit-Reset headers. This variant never evicts idle keys; use
// RateLimitWithCleanup for long-running servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware()
}

// RateLimitWithCleanup is like RateLimit but also runs a background
// goroutine that evicts stale keys every 2x the window duration, until
// ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.evict(now)
			}
		}
	}()
	return l.middleware()
}

func (l *limiter) middleware() Middleware {
	exempt := make(map[string]bool, len(l.cfg.ExemptPaths))
	for _, p := range l.cfg.ExemptPaths {
		exempt[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			remaining, resetAt, ok := l.take(l.cfg.KeyFunc(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retryAfter := time.Until(resetAt)
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP, preferring X-Forwarded-For, then
// X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
