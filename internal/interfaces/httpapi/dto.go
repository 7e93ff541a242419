package httpapi

import (
	"time"

	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	"github.com/riskibarqy/nfl-pickem/internal/domain/pick"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
	"github.com/riskibarqy/nfl-pickem/internal/domain/standing"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

type submitPickRequest struct {
	GameID         string `json:"game_id" validate:"required"`
	SelectedTeamID string `json:"selected_team_id" validate:"required"`
	WeekID         string `json:"week_id" validate:"omitempty"`
}

type createLeagueRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

type joinLeagueRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

type updateGameResultRequest struct {
	Status    string `json:"status" validate:"required"`
	HomeScore *int   `json:"home_score" validate:"omitempty,min=0"`
	AwayScore *int   `json:"away_score" validate:"omitempty,min=0"`
}

type healthDTO struct {
	Status    string              `json:"status"`
	FeedStale bool                `json:"feed_stale"`
	Feed      *usecase.SyncStatus `json:"feed,omitempty"`
}

type weekDTO struct {
	ID       string    `json:"id"`
	SeasonID string    `json:"season_id"`
	Number   int       `json:"number"`
	LockAt   time.Time `json:"lock_at"`
}

type gameDTO struct {
	ID         string    `json:"id"`
	WeekID     string    `json:"week_id"`
	ExternalID string    `json:"external_id,omitempty"`
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	StartsAt   time.Time `json:"starts_at"`
	Status     string    `json:"status"`
	HomeScore  *int      `json:"home_score"`
	AwayScore  *int      `json:"away_score"`
}

type pickDTO struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	WeekID         string    `json:"week_id"`
	GameID         string    `json:"game_id"`
	SelectedTeamID string    `json:"selected_team_id"`
	IsHomeTeamPick bool      `json:"is_home_team_pick"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type leagueDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID string    `json:"owner_user_id"`
	InviteCode  string    `json:"invite_code"`
	CreatedAt   time.Time `json:"created_at"`
}

type membershipDTO struct {
	LeagueID    string    `json:"league_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Status      string    `json:"status"`
	JoinOrder   int64     `json:"join_order"`
	JoinedAt    time.Time `json:"joined_at"`
}

type weekScoreDTO struct {
	WeekID       string `json:"week_id"`
	WeekNumber   int    `json:"week_number"`
	Score        int    `json:"score"`
	CorrectPicks int    `json:"correct_picks"`
	TotalPicks   int    `json:"total_picks"`
	Rank         int    `json:"rank"`
}

type standingStatsDTO struct {
	AverageScore  float64 `json:"average_score"`
	BestWeek      int     `json:"best_week"`
	WorstWeek     int     `json:"worst_week"`
	Consistency   float64 `json:"consistency"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
}

type standingDTO struct {
	UserID       string           `json:"user_id"`
	Rank         int              `json:"rank"`
	PreviousRank *int             `json:"previous_rank"`
	Trend        string           `json:"trend"`
	TotalScore   int              `json:"total_score"`
	Weeks        []weekScoreDTO   `json:"weeks"`
	Stats        standingStatsDTO `json:"stats"`
}

type standingsDTO struct {
	LeagueID     string        `json:"league_id"`
	SeasonYear   int           `json:"season_year"`
	WeekNumber   *int          `json:"week_number"`
	Stale        bool          `json:"stale"`
	LastSyncedAt *time.Time    `json:"last_synced_at"`
	ComputedAt   time.Time     `json:"computed_at"`
	Standings    []standingDTO `json:"standings"`
}

func weekToDTO(w season.Week) weekDTO {
	return weekDTO{
		ID:       w.ID,
		SeasonID: w.SeasonID,
		Number:   w.Number,
		LockAt:   w.LockAt,
	}
}

func gameToDTO(g game.Game) gameDTO {
	return gameDTO{
		ID:         g.ID,
		WeekID:     g.WeekID,
		ExternalID: g.ExternalID,
		HomeTeamID: g.HomeTeamID,
		AwayTeamID: g.AwayTeamID,
		StartsAt:   g.StartsAt,
		Status:     string(g.Status),
		HomeScore:  g.HomeScore,
		AwayScore:  g.AwayScore,
	}
}

func pickToDTO(p pick.Pick) pickDTO {
	return pickDTO{
		ID:             p.ID,
		UserID:         p.UserID,
		WeekID:         p.WeekID,
		GameID:         p.GameID,
		SelectedTeamID: p.SelectedTeamID,
		IsHomeTeamPick: p.IsHomeTeamPick,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func leagueToDTO(l league.League) leagueDTO {
	return leagueDTO{
		ID:          l.ID,
		Name:        l.Name,
		OwnerUserID: l.OwnerUserID,
		InviteCode:  l.InviteCode,
		CreatedAt:   l.CreatedAt,
	}
}

func membershipToDTO(m league.Membership, displayName string) membershipDTO {
	return membershipDTO{
		LeagueID:    m.LeagueID,
		UserID:      m.UserID,
		DisplayName: displayName,
		Status:      string(m.Status),
		JoinOrder:   m.JoinOrder,
		JoinedAt:    m.JoinedAt,
	}
}

func standingToDTO(s standing.Standing) standingDTO {
	weeks := make([]weekScoreDTO, 0, len(s.Weeks))
	for _, w := range s.Weeks {
		weeks = append(weeks, weekScoreDTO{
			WeekID:       w.WeekID,
			WeekNumber:   w.WeekNumber,
			Score:        w.Score,
			CorrectPicks: w.CorrectPicks,
			TotalPicks:   w.TotalPicks,
			Rank:         w.Rank,
		})
	}
	return standingDTO{
		UserID:       s.UserID,
		Rank:         s.Rank,
		PreviousRank: s.PreviousRank,
		Trend:        string(s.Trend),
		TotalScore:   s.TotalScore,
		Weeks:        weeks,
		Stats: standingStatsDTO{
			AverageScore:  s.Stats.AverageScore,
			BestWeek:      s.Stats.BestWeek,
			WorstWeek:     s.Stats.WorstWeek,
			Consistency:   s.Stats.Consistency,
			CurrentStreak: s.Stats.CurrentStreak,
			LongestStreak: s.Stats.LongestStreak,
		},
	}
}

func standingsToDTO(result usecase.StandingsResult) standingsDTO {
	items := make([]standingDTO, 0, len(result.Standings))
	for _, s := range result.Standings {
		items = append(items, standingToDTO(s))
	}
	return standingsDTO{
		LeagueID:     result.LeagueID,
		SeasonYear:   result.SeasonYear,
		WeekNumber:   result.WeekNumber,
		Stale:        result.Stale,
		LastSyncedAt: result.LastSyncedAt,
		ComputedAt:   result.ComputedAt,
		Standings:    items,
	}
}
