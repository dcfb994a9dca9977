package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type rateLimiter interface {
	Allow(r *http.Request) bool
}

// clientLimiter keeps one token bucket per client address so a single
// polling client cannot exhaust the budget of the others.
type clientLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	maxIdle  time.Duration
	now      func() time.Time
	clients  map[string]*clientBucket
	lastScan time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) *clientLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &clientLimiter{
		limit:   rate.Limit(ratePerSecond),
		burst:   burst,
		maxIdle: 10 * time.Minute,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (l *clientLimiter) Allow(r *http.Request) bool {
	if l == nil {
		return true
	}

	key := clientKey(r)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictIdle(now)

	bucket, ok := l.clients[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

// retryAfter is the whole number of seconds until one token refills.
func (l *clientLimiter) retryAfter() int {
	if l == nil || l.limit <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(l.limit))))
}

func (l *clientLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastScan) < l.maxIdle {
		return
	}
	l.lastScan = now
	for key, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) >= l.maxIdle {
			delete(l.clients, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	retryAfter := 1
	if cl, ok := limiter.(*clientLimiter); ok {
		retryAfter = cl.retryAfter()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
