package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures a sliding window limiter.
type RateLimitConfig struct {
	// Max requests per Window and key. Zero or less disables limiting.
	Max    int
	Window time.Duration
	// KeyFunc defaults to the client IP.
	KeyFunc func(*http.Request) string
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// window holds the counts of the current and the previous fixed window.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

// RateLimiter approximates a sliding window by weighting the previous fixed
// window with its remaining overlap.
type RateLimiter struct {
	max     int
	window  time.Duration
	keyFunc func(*http.Request) string
	now     func() time.Time

	mu   sync.Mutex
	keys map[string]*window
}

// NewRateLimiter creates a limiter. A non-positive Window defaults to a
// minute.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	return &RateLimiter{
		max:     cfg.Max,
		window:  cfg.Window,
		keyFunc: cfg.KeyFunc,
		now:     time.Now,
		keys:    make(map[string]*window),
	}
}

// Allow counts a request for key if it fits in the limit.
func (rl *RateLimiter) Allow(key string) Decision {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.keys[key]
	if !ok {
		w = &window{start: now.Truncate(rl.window)}
		rl.keys[key] = w
	}
	switch elapsed := now.Sub(w.start); {
	case elapsed >= 2*rl.window:
		w.prev, w.curr = 0, 0
		w.start = now.Truncate(rl.window)
	case elapsed >= rl.window:
		w.prev, w.curr = w.curr, 0
		w.start = w.start.Add(rl.window)
	}

	overlap := 1 - float64(now.Sub(w.start))/float64(rl.window)
	used := w.prev*max(overlap, 0) + w.curr
	d := Decision{ResetAt: w.start.Add(rl.window)}
	if used >= float64(rl.max) {
		return d
	}
	w.curr++
	d.Allowed = true
	d.Remaining = max(rl.max-int(math.Ceil(used+1)), 0)
	return d
}

// Sweep drops keys idle for two windows and returns how many were dropped.
func (rl *RateLimiter) Sweep() int {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for key, w := range rl.keys {
		if now.Sub(w.start) >= 2*rl.window {
			delete(rl.keys, key)
			n++
		}
	}
	return n
}

// Run sweeps every two windows until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(2 * rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// Middleware enforces the limit, answering 429 with a JSON error. Responses
// carry X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset.
func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		if rl.max <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := rl.Allow(rl.keyFunc(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				retry := max(d.ResetAt.Sub(rl.now()), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys requests by the first X-Forwarded-For hop, X-Real-IP or the
// remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
