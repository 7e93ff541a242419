package httpapi

import (
	"context"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

// ResultSyncer runs feed syncs on demand and reports feed health.
type ResultSyncer interface {
	SyncCurrentWeek(ctx context.Context) (usecase.SyncReport, error)
	Status() usecase.SyncStatus
}

type Handler struct {
	scheduleService  *usecase.ScheduleService
	pickService      *usecase.PickService
	leagueService    *usecase.LeagueService
	standingsService *usecase.StandingsService
	resultSync       ResultSyncer
	metrics          RequestMetrics
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	scheduleService *usecase.ScheduleService,
	pickService *usecase.PickService,
	leagueService *usecase.LeagueService,
	standingsService *usecase.StandingsService,
	resultSync ResultSyncer,
	metrics RequestMetrics,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		scheduleService:  scheduleService,
		pickService:      pickService,
		leagueService:    leagueService,
		standingsService: standingsService,
		resultSync:       resultSync,
		metrics:          metrics,
		logger:           logger.Named("httpapi"),
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	payload := healthDTO{Status: "ok"}
	if h.resultSync != nil {
		status := h.resultSync.Status()
		payload.FeedStale = status.Stale()
		payload.Feed = &status
	}

	writeSuccess(ctx, w, http.StatusOK, payload)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return errors.Wrapf(usecase.ErrValidation, "validation failed: %v", err)
	}

	return nil
}

// decodeJSON rejects unknown fields and empty bodies, then runs struct validation.
func (h *Handler) decodeJSON(ctx context.Context, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.Wrap(usecase.ErrValidation, "request body is required")
		}
		return errors.Wrapf(usecase.ErrValidation, "invalid JSON payload: %v", err)
	}
	return h.validateRequest(ctx, dst)
}

// currentUser resolves the authenticated principal to its local user record,
// creating it on first sight.
func (h *Handler) currentUser(ctx context.Context) (user.User, error) {
	principal, ok := principalFromContext(ctx)
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		return user.User{}, errors.Wrap(usecase.ErrUnauthorized, "principal is missing from request context")
	}

	item, err := h.pickService.GetOrCreateUser(ctx, principal.UserID)
	if err != nil {
		return user.User{}, err
	}
	return item, nil
}

// logFailure logs client-caused errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err, "kind", usecase.ErrorKind(err))
	if usecase.ErrorKind(err) == usecase.KindInternal {
		h.logger.ErrorContext(ctx, msg, args...)
		return
	}
	h.logger.WarnContext(ctx, msg, args...)
}
