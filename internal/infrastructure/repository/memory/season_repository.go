package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
)

type SeasonRepository struct {
	mu      sync.RWMutex
	seasons map[string]season.Season
	byYear  map[int]string
	weeks   map[string]season.Week
	byNum   map[string]string
}

func NewSeasonRepository() *SeasonRepository {
	return &SeasonRepository{
		seasons: make(map[string]season.Season),
		byYear:  make(map[int]string),
		weeks:   make(map[string]season.Week),
		byNum:   make(map[string]string),
	}
}

func (r *SeasonRepository) GetActive(_ context.Context) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.seasons {
		if s.Active {
			return s, true, nil
		}
	}
	return season.Season{}, false, nil
}

func (r *SeasonRepository) GetByID(_ context.Context, seasonID string) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.seasons[seasonID]
	return s, ok, nil
}

func (r *SeasonRepository) CreateIfAbsent(_ context.Context, candidate season.Season) (season.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byYear[candidate.Year]; ok {
		candidate = r.seasons[id]
	} else {
		r.byYear[candidate.Year] = candidate.ID
	}

	for id, s := range r.seasons {
		if s.Active && id != candidate.ID {
			s.Active = false
			r.seasons[id] = s
		}
	}
	candidate.Active = true
	r.seasons[candidate.ID] = candidate
	return candidate, nil
}

func (r *SeasonRepository) GetWeekByID(_ context.Context, weekID string) (season.Week, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.weeks[weekID]
	return w, ok, nil
}

func (r *SeasonRepository) ListWeeks(_ context.Context, seasonID string) ([]season.Week, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]season.Week, 0, season.RegularSeasonWeeks)
	for _, w := range r.weeks {
		if w.SeasonID == seasonID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *SeasonRepository) CreateWeekIfAbsent(_ context.Context, week season.Week) (season.Week, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := weekKey(week.SeasonID, week.Number)
	if id, ok := r.byNum[key]; ok {
		return r.weeks[id], nil
	}
	r.byNum[key] = week.ID
	r.weeks[week.ID] = week
	return week, nil
}

func (r *SeasonRepository) UpdateWeekLock(_ context.Context, weekID string, lockAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.weeks[weekID]
	if !ok {
		return nil
	}
	w.LockAt = lockAt
	r.weeks[weekID] = w
	return nil
}

func weekKey(seasonID string, number int) string {
	return seasonID + "::" + itoa(number)
}
