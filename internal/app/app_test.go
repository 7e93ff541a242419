package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/config"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

func inMemoryConfig() config.Config {
	return config.Config{
		AppEnv:                 config.EnvDev,
		ServiceName:            "nfl-pickem-api",
		HTTPAddr:               ":0",
		ReadTimeout:            5 * time.Second,
		WriteTimeout:           5 * time.Second,
		MetricsEnabled:         true,
		FeedSyncWorkers:        2,
		PickRateLimitPerMinute: 60,
		PickRateLimitBurst:     10,
		InternalJobToken:       "job-token",
	}
}

func TestNew_InMemoryServesHealthAndMetrics(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), inMemoryConfig(), nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "nfl_pickem_http_requests_total") {
		t.Fatalf("expected metrics exposition, got %d", rec.Code)
	}
}

func TestNew_SyncJobReportsDisabledFeed(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), inMemoryConfig(), nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync-results", nil)
	req.Header.Set("X-Internal-Job-Token", "job-token")
	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while feed is disabled, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	t.Parallel()

	cfg := inMemoryConfig()
	cfg.HTTPAddr = ""
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestDisabledFeed(t *testing.T) {
	t.Parallel()

	_, err := disabledFeed{}.FetchResults(context.Background(), 2025, 1)
	if !errors.Is(err, usecase.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
}
