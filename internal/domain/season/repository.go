package season

import (
	"context"
	"time"
)

// Repository persists seasons and their weeks.
type Repository interface {
	GetActive(ctx context.Context) (Season, bool, error)
	GetByID(ctx context.Context, seasonID string) (Season, bool, error)
	// CreateIfAbsent inserts the season keyed by year, activates it and
	// returns the stored row whether or not it was inserted.
	CreateIfAbsent(ctx context.Context, season Season) (Season, error)

	GetWeekByID(ctx context.Context, weekID string) (Week, bool, error)
	ListWeeks(ctx context.Context, seasonID string) ([]Week, error)
	// CreateWeekIfAbsent is atomic on (season id, week number).
	CreateWeekIfAbsent(ctx context.Context, week Week) (Week, error)
	UpdateWeekLock(ctx context.Context, weekID string, lockAt time.Time) error
}
