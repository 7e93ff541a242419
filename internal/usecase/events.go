package usecase

import (
	"context"
	"time"
)

// GameCompletedEvent is emitted when a game first reaches the completed status.
type GameCompletedEvent struct {
	GameID       string    `json:"game_id"`
	WeekID       string    `json:"week_id"`
	ExternalID   string    `json:"external_id,omitempty"`
	HomeTeamID   string    `json:"home_team_id"`
	AwayTeamID   string    `json:"away_team_id"`
	HomeScore    int       `json:"home_score"`
	AwayScore    int       `json:"away_score"`
	WinnerTeamID string    `json:"winner_team_id,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

type PickSubmittedEvent struct {
	PickID         string    `json:"pick_id"`
	UserID         string    `json:"user_id"`
	WeekID         string    `json:"week_id"`
	GameID         string    `json:"game_id"`
	SelectedTeamID string    `json:"selected_team_id"`
	Created        bool      `json:"created"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// EventPublisher fans domain events out to other services. Publishing is
// best-effort: callers log failures and carry on.
type EventPublisher interface {
	PublishGameCompleted(ctx context.Context, event GameCompletedEvent) error
	PublishPickSubmitted(ctx context.Context, event PickSubmittedEvent) error
}

type nopEventPublisher struct{}

func (nopEventPublisher) PublishGameCompleted(context.Context, GameCompletedEvent) error {
	return nil
}

func (nopEventPublisher) PublishPickSubmitted(context.Context, PickSubmittedEvent) error {
	return nil
}
