package httpapi

import (
	"net/http"

	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
)

// RouterConfig carries the transport knobs that do not belong to Handler.
type RouterConfig struct {
	CORSAllowedOrigins []string
	InternalJobToken   string
	MetricsHandler     http.Handler
	Metrics            RequestMetrics
	PickRateLimiter    *RateLimiter
}

func NewRouter(
	handler *Handler,
	verifier TokenVerifier,
	logger *logging.Logger,
	cfg RouterConfig,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("httpapi.router")

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.MetricsHandler)
	registerPublicScheduleRoutes(mux, handler)
	registerAuthorizedPickRoutes(mux, handler, verifier, cfg.PickRateLimiter)
	registerAuthorizedLeagueRoutes(mux, handler, verifier)
	registerInternalJobRoutes(mux, handler, cfg.InternalJobToken)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, RecordMetrics(cfg.Metrics, mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
