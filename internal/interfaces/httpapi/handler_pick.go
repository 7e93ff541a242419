package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

func (h *Handler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPick")
	defer span.End()

	caller, err := h.currentUser(ctx)
	if err != nil {
		h.logFailure(ctx, "resolve caller failed", err)
		writeError(ctx, w, err)
		return
	}

	var req submitPickRequest
	if err := h.decodeJSON(ctx, r, &req); err != nil {
		h.recordPickOutcome(usecase.ErrorKind(err))
		writeError(ctx, w, err)
		return
	}

	item, err := h.pickService.SubmitPick(ctx, usecase.SubmitPickInput{
		UserID:         caller.ID,
		WeekID:         req.WeekID,
		GameID:         req.GameID,
		SelectedTeamID: req.SelectedTeamID,
	})
	if err != nil {
		h.recordPickOutcome(usecase.ErrorKind(err))
		h.logFailure(ctx, "submit pick failed", err, "user_id", caller.ID, "game_id", req.GameID)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if item.Created {
		status = http.StatusCreated
		h.recordPickOutcome("created")
	} else {
		h.recordPickOutcome("updated")
	}

	writeSuccess(ctx, w, status, pickToDTO(item.Pick))
}

func (h *Handler) ListMyPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPicks")
	defer span.End()

	caller, err := h.currentUser(ctx)
	if err != nil {
		h.logFailure(ctx, "resolve caller failed", err)
		writeError(ctx, w, err)
		return
	}

	weekID := strings.TrimSpace(r.URL.Query().Get("week_id"))
	picks, err := h.pickService.GetUserPicks(ctx, caller.ID, weekID)
	if err != nil {
		h.logFailure(ctx, "list picks failed", err, "user_id", caller.ID, "week_id", weekID)
		writeError(ctx, w, err)
		return
	}

	items := make([]pickDTO, 0, len(picks))
	for _, p := range picks {
		items = append(items, pickToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) recordPickOutcome(outcome string) {
	if h.metrics != nil {
		h.metrics.IncPickSubmission(outcome)
	}
}
