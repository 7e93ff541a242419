package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
)

type GameRepository struct {
	mu         sync.RWMutex
	items      map[string]game.Game
	byExternal map[string]string
	seq        map[string]int64
	nextSeq    int64
}

func NewGameRepository() *GameRepository {
	return &GameRepository{
		items:      make(map[string]game.Game),
		byExternal: make(map[string]string),
		seq:        make(map[string]int64),
	}
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.items[gameID]
	if !ok {
		return game.Game{}, false, nil
	}
	return cloneGame(g), true, nil
}

func (r *GameRepository) GetByExternalID(_ context.Context, externalID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[externalID]
	if !ok {
		return game.Game{}, false, nil
	}
	return cloneGame(r.items[id]), true, nil
}

func (r *GameRepository) ListByWeek(ctx context.Context, weekID string) ([]game.Game, error) {
	return r.ListByWeeks(ctx, []string{weekID})
}

func (r *GameRepository) ListByWeeks(_ context.Context, weekIDs []string) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := stringSet(weekIDs)
	out := make([]game.Game, 0, 16)
	for _, g := range r.items {
		if _, ok := wanted[g.WeekID]; ok {
			out = append(out, cloneGame(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return r.seq[out[i].ID] < r.seq[out[j].ID]
	})
	return out, nil
}

func (r *GameRepository) Upsert(_ context.Context, g game.Game) (game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byExternal[g.ExternalID]; ok && g.ExternalID != "" {
		existing := r.items[id]
		existing.WeekID = g.WeekID
		existing.HomeTeamID = g.HomeTeamID
		existing.AwayTeamID = g.AwayTeamID
		existing.StartsAt = g.StartsAt
		existing.UpdatedAt = g.UpdatedAt
		r.items[id] = existing
		return cloneGame(existing), nil
	}

	r.nextSeq++
	r.seq[g.ID] = r.nextSeq
	r.items[g.ID] = cloneGame(g)
	if g.ExternalID != "" {
		r.byExternal[g.ExternalID] = g.ID
	}
	return cloneGame(g), nil
}

func (r *GameRepository) UpdateResult(_ context.Context, g game.Game, fromStatuses []game.Status) (game.Game, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[g.ID]
	if !ok || !slices.Contains(fromStatuses, existing.Status) {
		return game.Game{}, false, nil
	}

	existing.Status = g.Status
	existing.HomeScore = cloneInt(g.HomeScore)
	existing.AwayScore = cloneInt(g.AwayScore)
	existing.UpdatedAt = g.UpdatedAt
	r.items[g.ID] = existing
	return cloneGame(existing), true, nil
}

func cloneGame(g game.Game) game.Game {
	copied := g
	copied.HomeScore = cloneInt(g.HomeScore)
	copied.AwayScore = cloneInt(g.AwayScore)
	return copied
}
