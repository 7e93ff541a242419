package postgres

import (
	"time"

	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	"github.com/riskibarqy/nfl-pickem/internal/domain/pick"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
)

var (
	seasonColumns     = []string{"id", "season_year", "starts_on", "ends_on", "num_weeks", "is_active", "created_at"}
	weekColumns       = []string{"id", "season_id", "week_number", "lock_at", "created_at"}
	gameColumns       = []string{"id", "week_id", "external_id", "home_team_id", "away_team_id", "starts_at", "status", "home_score", "away_score", "seq", "created_at", "updated_at"}
	userColumns       = []string{"id", "identity_key", "display_name", "created_at"}
	pickColumns       = []string{"id", "user_id", "week_id", "game_id", "selected_team_id", "is_home_team_pick", "created_at", "updated_at"}
	leagueColumns     = []string{"id", "name", "owner_user_id", "invite_code", "created_at", "updated_at"}
	membershipColumns = []string{"league_id", "user_id", "status", "join_order", "joined_at", "updated_at"}
)

type seasonTableModel struct {
	ID        string    `db:"id"`
	Year      int       `db:"season_year"`
	StartsOn  time.Time `db:"starts_on"`
	EndsOn    time.Time `db:"ends_on"`
	NumWeeks  int       `db:"num_weeks"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

func seasonFromRow(row seasonTableModel) season.Season {
	return season.Season{
		ID:        row.ID,
		Year:      row.Year,
		StartsOn:  row.StartsOn.UTC(),
		EndsOn:    row.EndsOn.UTC(),
		Active:    row.IsActive,
		NumWeeks:  row.NumWeeks,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type weekTableModel struct {
	ID        string    `db:"id"`
	SeasonID  string    `db:"season_id"`
	Number    int       `db:"week_number"`
	LockAt    time.Time `db:"lock_at"`
	CreatedAt time.Time `db:"created_at"`
}

func weekFromRow(row weekTableModel) season.Week {
	return season.Week{
		ID:        row.ID,
		SeasonID:  row.SeasonID,
		Number:    row.Number,
		LockAt:    row.LockAt.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type gameTableModel struct {
	ID         string    `db:"id"`
	WeekID     string    `db:"week_id"`
	ExternalID string    `db:"external_id"`
	HomeTeamID string    `db:"home_team_id"`
	AwayTeamID string    `db:"away_team_id"`
	StartsAt   time.Time `db:"starts_at"`
	Status     string    `db:"status"`
	HomeScore  *int      `db:"home_score"`
	AwayScore  *int      `db:"away_score"`
	Seq        int64     `db:"seq,readonly"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func gameToRow(g game.Game) gameTableModel {
	return gameTableModel{
		ID:         g.ID,
		WeekID:     g.WeekID,
		ExternalID: g.ExternalID,
		HomeTeamID: g.HomeTeamID,
		AwayTeamID: g.AwayTeamID,
		StartsAt:   g.StartsAt,
		Status:     string(g.Status),
		HomeScore:  g.HomeScore,
		AwayScore:  g.AwayScore,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

func gameFromRow(row gameTableModel) game.Game {
	return game.Game{
		ID:         row.ID,
		WeekID:     row.WeekID,
		ExternalID: row.ExternalID,
		HomeTeamID: row.HomeTeamID,
		AwayTeamID: row.AwayTeamID,
		StartsAt:   row.StartsAt.UTC(),
		Status:     game.Status(row.Status),
		HomeScore:  row.HomeScore,
		AwayScore:  row.AwayScore,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

type userTableModel struct {
	ID          string    `db:"id"`
	IdentityKey string    `db:"identity_key"`
	DisplayName string    `db:"display_name"`
	CreatedAt   time.Time `db:"created_at"`
}

func userFromRow(row userTableModel) user.User {
	return user.User{
		ID:          row.ID,
		IdentityKey: row.IdentityKey,
		DisplayName: row.DisplayName,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

type pickTableModel struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	WeekID         string    `db:"week_id"`
	GameID         string    `db:"game_id"`
	SelectedTeamID string    `db:"selected_team_id"`
	IsHomeTeamPick bool      `db:"is_home_team_pick"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func pickFromRow(row pickTableModel) pick.Pick {
	return pick.Pick{
		ID:             row.ID,
		UserID:         row.UserID,
		WeekID:         row.WeekID,
		GameID:         row.GameID,
		SelectedTeamID: row.SelectedTeamID,
		IsHomeTeamPick: row.IsHomeTeamPick,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}

type leagueTableModel struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	OwnerUserID string    `db:"owner_user_id"`
	InviteCode  string    `db:"invite_code"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func leagueFromRow(row leagueTableModel) league.League {
	return league.League{
		ID:          row.ID,
		Name:        row.Name,
		OwnerUserID: row.OwnerUserID,
		InviteCode:  row.InviteCode,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type membershipTableModel struct {
	LeagueID  string    `db:"league_id"`
	UserID    string    `db:"user_id"`
	Status    string    `db:"status"`
	JoinOrder int64     `db:"join_order,readonly"`
	JoinedAt  time.Time `db:"joined_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func membershipFromRow(row membershipTableModel) league.Membership {
	return league.Membership{
		LeagueID:  row.LeagueID,
		UserID:    row.UserID,
		Status:    league.MembershipStatus(row.Status),
		JoinOrder: row.JoinOrder,
		JoinedAt:  row.JoinedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
