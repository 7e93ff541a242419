package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/nfl-pickem/internal/domain/pick"
)

type PickRepository struct {
	mu    sync.RWMutex
	items map[string]pick.Pick
}

func NewPickRepository() *PickRepository {
	return &PickRepository{items: make(map[string]pick.Pick)}
}

// Upsert keeps the stored ID and CreatedAt on resubmission; the mutex gives
// last-writer-wins per (user, game).
func (r *PickRepository) Upsert(_ context.Context, p pick.Pick) (pick.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := p.Key()
	if existing, ok := r.items[key]; ok {
		existing.SelectedTeamID = p.SelectedTeamID
		existing.IsHomeTeamPick = p.IsHomeTeamPick
		existing.WeekID = p.WeekID
		existing.UpdatedAt = p.UpdatedAt
		r.items[key] = existing
		return existing, nil
	}

	r.items[key] = p
	return p, nil
}

func (r *PickRepository) ListByUser(_ context.Context, userID, weekID string) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pick.Pick, 0, 16)
	for _, p := range r.items {
		if p.UserID != userID || (weekID != "" && p.WeekID != weekID) {
			continue
		}
		out = append(out, p)
	}
	sortPicks(out)
	return out, nil
}

func (r *PickRepository) ListByWeeks(_ context.Context, weekIDs []string) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := stringSet(weekIDs)
	out := make([]pick.Pick, 0, len(r.items))
	for _, p := range r.items {
		if _, ok := wanted[p.WeekID]; ok {
			out = append(out, p)
		}
	}
	sortPicks(out)
	return out, nil
}

func sortPicks(items []pick.Pick) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
