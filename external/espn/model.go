package espn

import (
	"strconv"
	"strings"

	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

type scoreboardEnvelope struct {
	Events []scoreboardEvent `json:"events"`
}

type scoreboardEvent struct {
	ID           string                  `json:"id"`
	Date         string                  `json:"date"`
	Status       eventStatus             `json:"status"`
	Competitions []scoreboardCompetition `json:"competitions"`
}

type scoreboardCompetition struct {
	ID          string                 `json:"id"`
	Status      eventStatus            `json:"status"`
	Competitors []scoreboardCompetitor `json:"competitors"`
}

type scoreboardCompetitor struct {
	HomeAway string         `json:"homeAway"`
	Score    string         `json:"score"`
	Team     competitorTeam `json:"team"`
}

type competitorTeam struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
}

type eventStatus struct {
	Type statusType `json:"type"`
}

type statusType struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	Completed   bool   `json:"completed"`
	Detail      string `json:"detail"`
	ShortDetail string `json:"shortDetail"`
}

func (s statusType) empty() bool {
	return s.State == "" && s.Name == ""
}

// mapStatus folds the feed's pre/in/post state into the canonical status.
// Postponed and canceled games are reported as scheduled.
func mapStatus(st statusType) game.Status {
	if isPostponedOrCanceled(st) {
		return game.StatusScheduled
	}
	switch strings.ToLower(strings.TrimSpace(st.State)) {
	case "in":
		return game.StatusInProgress
	case "post":
		return game.StatusCompleted
	default:
		return game.StatusScheduled
	}
}

func isPostponedOrCanceled(st statusType) bool {
	for _, raw := range []string{st.Name, st.Detail, st.ShortDetail} {
		v := strings.ToLower(raw)
		if strings.Contains(v, "postponed") || strings.Contains(v, "canceled") || strings.Contains(v, "cancelled") {
			return true
		}
	}
	return false
}

func parseScore(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// normalizeEvents maps scoreboard events to results. Events without a usable
// home/away pair are skipped; scores are dropped unless both sides are known
// and the game has started.
func normalizeEvents(events []scoreboardEvent) []usecase.ExternalGameResult {
	out := make([]usecase.ExternalGameResult, 0, len(events))
	for _, event := range events {
		externalID := strings.TrimSpace(event.ID)
		if externalID == "" || len(event.Competitions) == 0 {
			continue
		}
		competition := event.Competitions[0]

		var home, away *scoreboardCompetitor
		for i := range competition.Competitors {
			switch strings.ToLower(competition.Competitors[i].HomeAway) {
			case "home":
				home = &competition.Competitors[i]
			case "away":
				away = &competition.Competitors[i]
			}
		}
		if home == nil || away == nil {
			continue
		}

		st := competition.Status.Type
		if st.empty() {
			st = event.Status.Type
		}
		result := usecase.ExternalGameResult{
			GameExternalID: externalID,
			Status:         mapStatus(st),
		}
		if result.Status != game.StatusScheduled {
			homeScore, awayScore := parseScore(home.Score), parseScore(away.Score)
			if homeScore != nil && awayScore != nil {
				result.HomeScore = homeScore
				result.AwayScore = awayScore
			}
		}
		out = append(out, result)
	}
	return out
}
