package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

func (h *Handler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateLeague")
	defer span.End()

	caller, err := h.currentUser(ctx)
	if err != nil {
		h.logFailure(ctx, "resolve caller failed", err)
		writeError(ctx, w, err)
		return
	}

	var req createLeagueRequest
	if err := h.decodeJSON(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.leagueService.CreateLeague(ctx, usecase.CreateLeagueInput{
		OwnerUserID: caller.ID,
		Name:        req.Name,
	})
	if err != nil {
		h.logFailure(ctx, "create league failed", err, "user_id", caller.ID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, leagueToDTO(item))
}

func (h *Handler) JoinLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinLeague")
	defer span.End()

	caller, err := h.currentUser(ctx)
	if err != nil {
		h.logFailure(ctx, "resolve caller failed", err)
		writeError(ctx, w, err)
		return
	}

	var req joinLeagueRequest
	if err := h.decodeJSON(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	membership, err := h.leagueService.JoinLeague(ctx, caller.ID, req.InviteCode)
	if err != nil {
		h.logFailure(ctx, "join league failed", err, "user_id", caller.ID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, membershipToDTO(membership, caller.DisplayName))
}

func (h *Handler) LeaveLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaveLeague")
	defer span.End()

	caller, err := h.currentUser(ctx)
	if err != nil {
		h.logFailure(ctx, "resolve caller failed", err)
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	membership, err := h.leagueService.LeaveLeague(ctx, caller.ID, leagueID)
	if err != nil {
		h.logFailure(ctx, "leave league failed", err, "user_id", caller.ID, "league_id", leagueID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, membershipToDTO(membership, caller.DisplayName))
}

func (h *Handler) ListLeagueMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagueMembers")
	defer span.End()

	caller, err := h.currentUser(ctx)
	if err != nil {
		h.logFailure(ctx, "resolve caller failed", err)
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	members, err := h.leagueService.ListMembers(ctx, caller.ID, leagueID)
	if err != nil {
		h.logFailure(ctx, "list league members failed", err, "user_id", caller.ID, "league_id", leagueID)
		writeError(ctx, w, err)
		return
	}

	items := make([]membershipDTO, 0, len(members))
	for _, m := range members {
		items = append(items, membershipToDTO(m.Membership, m.DisplayName))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListMyLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyLeagues")
	defer span.End()

	caller, err := h.currentUser(ctx)
	if err != nil {
		h.logFailure(ctx, "resolve caller failed", err)
		writeError(ctx, w, err)
		return
	}

	leagues, err := h.leagueService.ListUserLeagues(ctx, caller.ID)
	if err != nil {
		h.logFailure(ctx, "list my leagues failed", err, "user_id", caller.ID)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLeagueStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeagueStandings")
	defer span.End()

	caller, err := h.currentUser(ctx)
	if err != nil {
		h.logFailure(ctx, "resolve caller failed", err)
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	weekNumber, err := parseOptionalPositiveInt(r.URL.Query().Get("week"), "week")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.leagueService.EnsureMember(ctx, caller.ID, leagueID); err != nil {
		h.logFailure(ctx, "standings access denied", err, "user_id", caller.ID, "league_id", leagueID)
		writeError(ctx, w, err)
		return
	}

	result, err := h.standingsService.GetStandings(ctx, leagueID, weekNumber)
	if err != nil {
		h.logFailure(ctx, "get standings failed", err, "league_id", leagueID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingsToDTO(result))
}
