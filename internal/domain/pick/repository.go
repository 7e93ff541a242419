package pick

import "context"

type Repository interface {
	// Upsert creates the pick or overwrites its selection in place, keyed by (user id, game id).
	// The returned pick keeps its original ID and CreatedAt.
	Upsert(ctx context.Context, p Pick) (Pick, error)
	// ListByUser returns a user's picks ordered by creation; an empty weekID means all weeks.
	ListByUser(ctx context.Context, userID, weekID string) ([]Pick, error)
	ListByWeeks(ctx context.Context, weekIDs []string) ([]Pick, error)
}
