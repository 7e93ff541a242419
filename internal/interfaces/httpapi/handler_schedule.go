package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) GetCurrentWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentWeek")
	defer span.End()

	week, err := h.scheduleService.GetOrCreateCurrentWeek(ctx)
	if err != nil {
		h.logFailure(ctx, "get current week failed", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, weekToDTO(week))
}

func (h *Handler) ListWeekGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWeekGames")
	defer span.End()

	weekID := strings.TrimSpace(r.PathValue("weekID"))
	games, err := h.scheduleService.ListGames(ctx, weekID)
	if err != nil {
		h.logFailure(ctx, "list week games failed", err, "week_id", weekID)
		writeError(ctx, w, err)
		return
	}

	items := make([]gameDTO, 0, len(games))
	for _, g := range games {
		items = append(items, gameToDTO(g))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
