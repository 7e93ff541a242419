package game

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var (
	ErrInvalidTransition = errors.New("invalid game status transition")
	ErrScoreMismatch     = errors.New("home and away score must both be set or both be empty")
	ErrUnknownStatus     = errors.New("unknown game status")
)

// ParseStatus accepts the canonical values plus a few common spellings.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "scheduled":
		return StatusScheduled, nil
	case "in_progress", "in-progress", "inprogress", "live":
		return StatusInProgress, nil
	case "completed", "final":
		return StatusCompleted, nil
	default:
		return "", errors.Wrapf(ErrUnknownStatus, "%q", raw)
	}
}

func (s Status) order() int {
	switch s {
	case StatusScheduled:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return -1
	}
}

func (s Status) Valid() bool {
	return s.order() >= 0
}

// CanTransitionTo reports whether moving from s to next keeps status monotonic.
// Staying in the same status is allowed so live scores can be refreshed.
func (s Status) CanTransitionTo(next Status) bool {
	return next.Valid() && s.Valid() && next.order() >= s.order()
}

// Game is one NFL matchup within a week.
type Game struct {
	ID         string
	WeekID     string
	ExternalID string
	HomeTeamID string
	AwayTeamID string
	StartsAt   time.Time
	Status     Status
	HomeScore  *int
	AwayScore  *int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (g Game) Validate() error {
	if strings.TrimSpace(g.WeekID) == "" {
		return errors.New("week id is required")
	}
	if strings.TrimSpace(g.HomeTeamID) == "" || strings.TrimSpace(g.AwayTeamID) == "" {
		return errors.New("home and away team ids are required")
	}
	if g.HomeTeamID == g.AwayTeamID {
		return errors.New("home and away teams must differ")
	}
	if g.StartsAt.IsZero() {
		return errors.New("start time is required")
	}
	if !g.Status.Valid() {
		return errors.Wrapf(ErrUnknownStatus, "%q", g.Status)
	}
	return validateScores(g.HomeScore, g.AwayScore)
}

func (g Game) HasTeam(teamID string) bool {
	return teamID != "" && (teamID == g.HomeTeamID || teamID == g.AwayTeamID)
}

// AcceptsPicks is true only while the game has not kicked off.
func (g Game) AcceptsPicks() bool {
	return g.Status == StatusScheduled
}

// Winner returns the winning team of a completed game. Ties have no winner.
func (g Game) Winner() (string, bool) {
	if g.Status != StatusCompleted || g.HomeScore == nil || g.AwayScore == nil {
		return "", false
	}
	switch {
	case *g.HomeScore > *g.AwayScore:
		return g.HomeTeamID, true
	case *g.AwayScore > *g.HomeScore:
		return g.AwayTeamID, true
	default:
		return "", false
	}
}

// ApplyResult returns g with the new status and scores applied. Nil scores keep
// the stored ones. Completing a game requires scores.
func (g Game) ApplyResult(status Status, homeScore, awayScore *int) (Game, error) {
	if !status.Valid() {
		return Game{}, errors.Wrapf(ErrUnknownStatus, "%q", status)
	}
	if !g.Status.CanTransitionTo(status) {
		return Game{}, errors.Wrapf(ErrInvalidTransition, "%s -> %s", g.Status, status)
	}
	if err := validateScores(homeScore, awayScore); err != nil {
		return Game{}, err
	}

	out := g
	out.Status = status
	if homeScore != nil {
		home, away := *homeScore, *awayScore
		out.HomeScore = &home
		out.AwayScore = &away
	}
	if out.Status == StatusCompleted && out.HomeScore == nil {
		return Game{}, errors.Wrap(ErrScoreMismatch, "completed game requires a final score")
	}
	return out, nil
}

func validateScores(home, away *int) error {
	if (home == nil) != (away == nil) {
		return ErrScoreMismatch
	}
	if home != nil && (*home < 0 || *away < 0) {
		return errors.New("scores must not be negative")
	}
	return nil
}
