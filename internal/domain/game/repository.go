package game

import "context"

// Repository persists games. List methods return schedule order (start time, then insertion).
type Repository interface {
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	GetByExternalID(ctx context.Context, externalID string) (Game, bool, error)
	ListByWeek(ctx context.Context, weekID string) ([]Game, error)
	ListByWeeks(ctx context.Context, weekIDs []string) ([]Game, error)
	// Upsert inserts or refreshes the schedule fields of a game keyed by external id.
	// Status and scores of an existing game are left untouched.
	Upsert(ctx context.Context, g Game) (Game, error)
	// UpdateResult writes status and scores only while the stored status is one of
	// fromStatuses, acting as a compare-and-set. ok is false when no row matched.
	UpdateResult(ctx context.Context, g Game, fromStatuses []Status) (updated Game, ok bool, err error)
}
