package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/FocuswithJustin/scriptref/internal/logging"
)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	RequestsPerMinute int
	BurstSize         int
	// TrustProxy honours X-Forwarded-For and X-Real-IP.
	TrustProxy bool
}

// tokenBucket implements a token bucket rate limiter.
type tokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastSeen   time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity, refillRate float64) *tokenBucket {
	return &tokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		lastSeen:   time.Now(),
	}
}

// refill brings the bucket up to date. Callers hold mu.
func (tb *tokenBucket) refill(now time.Time) {
	tb.tokens = min(tb.capacity, tb.tokens+now.Sub(tb.lastSeen).Seconds()*tb.refillRate)
	tb.lastSeen = now
}

// take consumes a token if one is available and reports the state after.
func (tb *tokenBucket) take() (ok bool, remaining int, reset time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.refill(now)
	if tb.tokens >= 1.0 {
		tb.tokens--
		ok = true
	}
	reset = now
	if tb.tokens < tb.capacity && tb.refillRate > 0 {
		reset = now.Add(time.Duration((tb.capacity - tb.tokens) / tb.refillRate * float64(time.Second)))
	}
	return ok, int(tb.tokens), reset
}

func (tb *tokenBucket) allow() bool {
	ok, _, _ := tb.take()
	return ok
}

func (tb *tokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastSeen
}

// RateLimiter manages per-client rate limiting.
type RateLimiter struct {
	buckets    map[string]*tokenBucket
	config     RateLimiterConfig
	mu         sync.Mutex
	cleanupTTL time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop. Call
// Close to stop it.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.BurstSize <= 0 {
		config.BurstSize = 10
	}
	rl := &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		config:     config,
		cleanupTTL: 5 * time.Minute,
		done:       make(chan struct{}),
	}
	go rl.cleanup(time.Minute)
	return rl
}

func (rl *RateLimiter) bucket(client string) *tokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[client]
	if !ok {
		b = newTokenBucket(float64(rl.config.BurstSize), float64(rl.config.RequestsPerMinute)/60.0)
		rl.buckets[client] = b
	}
	return b
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

// sweep removes buckets idle for longer than the cleanup TTL.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for client, b := range rl.buckets {
		if now.Sub(b.idleSince()) > rl.cleanupTTL {
			delete(rl.buckets, client)
		}
	}
}

// Close stops the cleanup loop.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

// Allow checks if a request from client should be allowed.
func (rl *RateLimiter) Allow(client string) bool {
	return rl.bucket(client).allow()
}

// Middleware returns an HTTP middleware that applies rate limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientIP(r, rl.config.TrustProxy)
		ok, remaining, reset := rl.bucket(client).take()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.RequestsPerMinute))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !ok {
			retryAfter := int(time.Until(reset).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			logging.SecurityEvent("rate_limited", "api", "client", client, "path", r.URL.Path)
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				"Rate limit exceeded. Try again in "+strconv.Itoa(retryAfter)+" seconds.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address. Forwarding headers are used only
// when trustProxy is set, and only if they hold a valid IP; the leftmost
// X-Forwarded-For entry is the client.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) != nil {
		return ip
	}
	return "unknown"
}
