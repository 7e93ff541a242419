package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	visitorIdleTTL       = 10 * time.Minute
	visitorSweepInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles a route per authenticated user, falling back to the
// client IP when no principal is present. Idle visitors are swept lazily.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	metrics RequestMetrics
	clock   clockwork.Clock

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimiter returns nil when perMinute is not positive, which disables limiting.
func NewRateLimiter(perMinute, burst int, metrics RequestMetrics) *RateLimiter {
	return newRateLimiterWithClock(perMinute, burst, metrics, clockwork.NewRealClock())
}

func newRateLimiterWithClock(perMinute, burst int, metrics RequestMetrics, clock clockwork.Clock) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     burst,
		metrics:   metrics,
		clock:     clock,
		visitors:  make(map[string]*visitor),
		lastSweep: clock.Now(),
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RateLimiter")
		defer span.End()

		key := resolveClientIP(r)
		if principal, ok := principalFromContext(ctx); ok && principal.UserID != "" {
			key = "user:" + principal.UserID
		}

		if !l.allow(key) {
			if l.metrics != nil {
				l.metrics.IncRateLimited()
			}
			w.Header().Set("Retry-After", "60")
			writeError(ctx, w, errRateLimited)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.Sub(l.lastSweep) >= visitorSweepInterval {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorIdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) visitorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
