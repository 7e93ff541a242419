package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, errors.Wrap(usecase.ErrValidation, "bad payload"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
	if got, _ := errorObj["message"].(string); got != "bad payload: validation error" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, errors.New("pq: connection refused to 10.0.0.5"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body envelope[any]
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body.Error == nil || body.Error.Message != "internal server error" {
		t.Fatalf("expected generic internal message, got %+v", body.Error)
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{name: "validation", err: errors.Wrap(usecase.ErrValidation, "x"), wantStatus: http.StatusBadRequest, wantReason: usecase.KindValidation},
		{name: "score mismatch", err: game.ErrScoreMismatch, wantStatus: http.StatusBadRequest, wantReason: usecase.KindValidation},
		{name: "not found", err: errors.Wrap(usecase.ErrNotFound, "x"), wantStatus: http.StatusNotFound, wantReason: usecase.KindNotFound},
		{name: "picks locked", err: errors.Wrap(usecase.ErrPicksLocked, "x"), wantStatus: http.StatusConflict, wantReason: usecase.KindPicksLocked},
		{name: "invalid transition", err: errors.Wrap(game.ErrInvalidTransition, "x"), wantStatus: http.StatusConflict, wantReason: usecase.KindInvalidTransition},
		{name: "conflict", err: errors.Mark(errors.New("dup"), usecase.ErrConflict), wantStatus: http.StatusConflict, wantReason: usecase.KindConflict},
		{name: "upstream", err: errors.Wrap(usecase.ErrUpstreamUnavailable, "x"), wantStatus: http.StatusServiceUnavailable, wantReason: usecase.KindUpstreamUnavailable},
		{name: "unauthorized", err: usecase.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantReason: usecase.KindUnauthorized},
		{name: "forbidden", err: usecase.ErrForbidden, wantStatus: http.StatusForbidden, wantReason: usecase.KindForbidden},
		{name: "rate limited", err: errRateLimited, wantStatus: http.StatusTooManyRequests, wantReason: "rate_limited"},
		{name: "internal", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantReason: usecase.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(context.Background(), tt.err)
			if got.HTTPStatus != tt.wantStatus || got.Reason != tt.wantReason {
				t.Fatalf("mapError(%v)=%+v want status=%d reason=%s", tt.err, got, tt.wantStatus, tt.wantReason)
			}
		})
	}
}
