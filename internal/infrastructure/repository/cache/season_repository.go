package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
	basecache "github.com/riskibarqy/nfl-pickem/internal/platform/cache"
)

const (
	keyActiveSeason = "season:active"
	prefixSeasonID  = "season:id:"
	prefixWeekID    = "week:id:"
	prefixWeekList  = "week:list:"
)

type lookup[T any] struct {
	value  T
	exists bool
}

// SeasonRepository caches season and week reads in front of next. Any write
// drops every cached entry; writes are rare (season rollover, week creation and
// lock moves) compared with the reads done on every pick and standings call.
type SeasonRepository struct {
	next    season.Repository
	seasons *basecache.Store[lookup[season.Season]]
	weeks   *basecache.Store[lookup[season.Week]]
	lists   *basecache.Store[[]season.Week]
}

func NewSeasonRepository(next season.Repository, ttl time.Duration) *SeasonRepository {
	return &SeasonRepository{
		next:    next,
		seasons: basecache.NewStore[lookup[season.Season]](ttl),
		weeks:   basecache.NewStore[lookup[season.Week]](ttl),
		lists:   basecache.NewStore[[]season.Week](ttl),
	}
}

func (r *SeasonRepository) GetActive(ctx context.Context) (season.Season, bool, error) {
	v, err := r.seasons.GetOrLoad(ctx, keyActiveSeason, func(ctx context.Context) (lookup[season.Season], error) {
		item, exists, err := r.next.GetActive(ctx)
		return lookup[season.Season]{value: item, exists: exists}, err
	})
	if err != nil {
		return season.Season{}, false, err
	}
	return v.value, v.exists, nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	v, err := r.seasons.GetOrLoad(ctx, prefixSeasonID+seasonID, func(ctx context.Context) (lookup[season.Season], error) {
		item, exists, err := r.next.GetByID(ctx, seasonID)
		return lookup[season.Season]{value: item, exists: exists}, err
	})
	if err != nil {
		return season.Season{}, false, err
	}
	return v.value, v.exists, nil
}

func (r *SeasonRepository) CreateIfAbsent(ctx context.Context, candidate season.Season) (season.Season, error) {
	stored, err := r.next.CreateIfAbsent(ctx, candidate)
	r.invalidate(ctx)
	return stored, err
}

func (r *SeasonRepository) GetWeekByID(ctx context.Context, weekID string) (season.Week, bool, error) {
	v, err := r.weeks.GetOrLoad(ctx, prefixWeekID+weekID, func(ctx context.Context) (lookup[season.Week], error) {
		item, exists, err := r.next.GetWeekByID(ctx, weekID)
		return lookup[season.Week]{value: item, exists: exists}, err
	})
	if err != nil {
		return season.Week{}, false, err
	}
	return v.value, v.exists, nil
}

func (r *SeasonRepository) ListWeeks(ctx context.Context, seasonID string) ([]season.Week, error) {
	items, err := r.lists.GetOrLoad(ctx, prefixWeekList+seasonID, func(ctx context.Context) ([]season.Week, error) {
		items, err := r.next.ListWeeks(ctx, seasonID)
		if err != nil {
			return nil, err
		}
		return append([]season.Week(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]season.Week(nil), items...), nil
}

func (r *SeasonRepository) CreateWeekIfAbsent(ctx context.Context, week season.Week) (season.Week, error) {
	stored, err := r.next.CreateWeekIfAbsent(ctx, week)
	r.invalidate(ctx)
	return stored, err
}

func (r *SeasonRepository) UpdateWeekLock(ctx context.Context, weekID string, lockAt time.Time) error {
	err := r.next.UpdateWeekLock(ctx, weekID, lockAt)
	r.invalidate(ctx)
	return err
}

func (r *SeasonRepository) invalidate(ctx context.Context) {
	r.seasons.DeletePrefix(ctx, "season:")
	r.weeks.DeletePrefix(ctx, prefixWeekID)
	r.lists.DeletePrefix(ctx, prefixWeekList)
}
