package httpapi

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

// UpdateGameResult is the internal entry point for manual score corrections.
func (h *Handler) UpdateGameResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateGameResult")
	defer span.End()

	var req updateGameResultRequest
	if err := h.decodeJSON(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	item, err := h.scheduleService.UpdateGameResult(ctx, usecase.UpdateGameResultInput{
		GameID:    gameID,
		Status:    req.Status,
		HomeScore: req.HomeScore,
		AwayScore: req.AwayScore,
	})
	if err != nil {
		h.logFailure(ctx, "update game result failed", err, "game_id", gameID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameToDTO(item))
}

func (h *Handler) RunSyncResultsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncResultsJob")
	defer span.End()

	if h.resultSync == nil {
		writeError(ctx, w, errors.Wrap(usecase.ErrUpstreamUnavailable, "result sync is not configured"))
		return
	}

	report, err := h.resultSync.SyncCurrentWeek(ctx)
	if err != nil {
		h.logFailure(ctx, "sync results job failed", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "sync results job finished",
		"week_id", report.WeekID,
		"updated", report.Updated,
		"failed", report.Failed,
	)
	writeSuccess(ctx, w, http.StatusOK, report)
}
