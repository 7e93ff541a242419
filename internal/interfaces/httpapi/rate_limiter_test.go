package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
)

func limitedRequest(userID, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/picks", nil)
	req.RemoteAddr = remoteAddr
	if userID != "" {
		req = req.WithContext(withPrincipal(req.Context(), user.Principal{UserID: userID}))
	}
	return req
}

func TestRateLimiter_PerUserBuckets(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	metrics := &recordingMetrics{}
	limiter := newRateLimiterWithClock(1, 2, metrics, clock)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := limiter.Middleware(next)

	serve := func(userID string) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, limitedRequest(userID, "10.0.0.1:1234"))
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := serve("alice"); code != http.StatusNoContent {
			t.Fatalf("request %d within burst: got %d", i+1, code)
		}
	}
	if code := serve("alice"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := serve("bruno"); code != http.StatusNoContent {
		t.Fatalf("expected other user to have its own bucket, got %d", code)
	}

	clock.Advance(time.Minute)
	if code := serve("alice"); code != http.StatusNoContent {
		t.Fatalf("expected token refill after a minute, got %d", code)
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.rateLimited != 1 {
		t.Fatalf("expected one rate-limited request, got %d", metrics.rateLimited)
	}
}

func TestRateLimiter_FallsBackToClientIP(t *testing.T) {
	t.Parallel()

	limiter := newRateLimiterWithClock(1, 1, nil, clockwork.NewFakeClock())
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, limitedRequest("", "192.0.2.10:5000"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, limitedRequest("", "192.0.2.10:6000"))
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, limitedRequest("", "192.0.2.11:5000"))

	if first.Code != http.StatusNoContent || second.Code != http.StatusTooManyRequests || other.Code != http.StatusNoContent {
		t.Fatalf("unexpected codes: first=%d second=%d other=%d", first.Code, second.Code, other.Code)
	}
	if got := second.Header().Get("Retry-After"); got == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	limiter := newRateLimiterWithClock(60, 1, nil, clock)

	limiter.allow("user:a")
	limiter.allow("user:b")
	if got := limiter.visitorCount(); got != 2 {
		t.Fatalf("expected 2 visitors, got %d", got)
	}

	clock.Advance(visitorIdleTTL + time.Second)
	limiter.allow("user:c")
	if got := limiter.visitorCount(); got != 1 {
		t.Fatalf("expected idle visitors to be swept, got %d", got)
	}
}

func TestNewRateLimiter_DisabledWhenNotPositive(t *testing.T) {
	t.Parallel()

	if limiter := NewRateLimiter(0, 5, nil); limiter != nil {
		t.Fatalf("expected nil limiter")
	}

	var limiter *RateLimiter
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	limiter.Middleware(next).ServeHTTP(rec, limitedRequest("alice", "10.0.0.1:1"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}
}
