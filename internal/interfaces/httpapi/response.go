package httpapi

import (
	"context"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "nfl-pickem"
)

// errRateLimited is local to the transport; usecases never produce it.
var errRateLimited = errors.New("too many requests")

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
		logging.Default().ErrorContext(ctx, "encode response failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"apiVersion":"2.0","error":{"code":500,"message":"internal server error","status":"INTERNAL"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.B)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	if mapped.HTTPStatus == http.StatusInternalServerError {
		writeInternalError(ctx, w)
		return
	}

	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: err.Error(),
			Status:  mapped.Status,
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  mapped.Reason,
					Message: err.Error(),
				},
			},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	const msg = "internal server error"

	writeJSON(ctx, w, http.StatusInternalServerError, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    http.StatusInternalServerError,
			Message: msg,
			Status:  "INTERNAL",
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  usecase.KindInternal,
					Message: msg,
				},
			},
		},
	})
}

// mapError translates an error kind to its HTTP status. The reason is the kind
// string so clients can branch on it.
func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	if errors.Is(err, errRateLimited) {
		return mappedError{
			HTTPStatus: http.StatusTooManyRequests,
			Reason:     "rate_limited",
			Status:     "RESOURCE_EXHAUSTED",
		}
	}

	kind := usecase.ErrorKind(err)
	switch kind {
	case usecase.KindValidation:
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: kind, Status: "INVALID_ARGUMENT"}
	case usecase.KindNotFound:
		return mappedError{HTTPStatus: http.StatusNotFound, Reason: kind, Status: "NOT_FOUND"}
	case usecase.KindPicksLocked:
		return mappedError{HTTPStatus: http.StatusConflict, Reason: kind, Status: "FAILED_PRECONDITION"}
	case usecase.KindInvalidTransition:
		return mappedError{HTTPStatus: http.StatusConflict, Reason: kind, Status: "FAILED_PRECONDITION"}
	case usecase.KindConflict:
		return mappedError{HTTPStatus: http.StatusConflict, Reason: kind, Status: "ABORTED"}
	case usecase.KindUpstreamUnavailable:
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: kind, Status: "UNAVAILABLE"}
	case usecase.KindUnauthorized:
		return mappedError{HTTPStatus: http.StatusUnauthorized, Reason: kind, Status: "UNAUTHENTICATED"}
	case usecase.KindForbidden:
		return mappedError{HTTPStatus: http.StatusForbidden, Reason: kind, Status: "PERMISSION_DENIED"}
	default:
		return mappedError{HTTPStatus: http.StatusInternalServerError, Reason: usecase.KindInternal, Status: "INTERNAL"}
	}
}
