package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
	qb "github.com/riskibarqy/nfl-pickem/internal/platform/querybuilder"
)

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) GetActive(ctx context.Context) (season.Season, bool, error) {
	return r.getSeason(ctx, qb.Eq("is_active", true))
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	return r.getSeason(ctx, qb.Eq("id", seasonID))
}

func (r *SeasonRepository) getSeason(ctx context.Context, cond qb.Condition) (season.Season, bool, error) {
	query, args, err := qb.Select(seasonColumns...).From("seasons").Where(cond).Limit(1).ToSQL()
	if err != nil {
		return season.Season{}, false, errors.Wrap(err, "build get season query")
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, errors.Wrap(err, "get season")
	}
	return seasonFromRow(row), true, nil
}

// CreateIfAbsent inserts the season for its year when missing and makes it the
// only active season.
func (r *SeasonRepository) CreateIfAbsent(ctx context.Context, s season.Season) (season.Season, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return season.Season{}, errors.Wrap(err, "begin tx for season create")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deactivate, deactivateArgs, err := qb.Update("seasons").
		Set("is_active", false).
		Where(qb.Eq("is_active", true), qb.Expr("season_year <> ?", s.Year)).
		ToSQL()
	if err != nil {
		return season.Season{}, errors.Wrap(err, "build deactivate seasons query")
	}
	if _, err := tx.ExecContext(ctx, deactivate, deactivateArgs...); err != nil {
		return season.Season{}, errors.Wrap(err, "deactivate seasons")
	}

	model := seasonTableModel{
		ID:        s.ID,
		Year:      s.Year,
		StartsOn:  s.StartsOn,
		EndsOn:    s.EndsOn,
		NumWeeks:  s.NumWeeks,
		IsActive:  true,
		CreatedAt: s.CreatedAt,
	}
	insert, insertArgs, err := qb.InsertModel("seasons", model,
		"ON CONFLICT (season_year) DO UPDATE SET is_active = TRUE",
		seasonColumns...,
	)
	if err != nil {
		return season.Season{}, errors.Wrap(err, "build insert season query")
	}

	var row seasonTableModel
	if err := tx.GetContext(ctx, &row, insert, insertArgs...); err != nil {
		return season.Season{}, wrapWriteErr(err, "insert season")
	}
	if err := tx.Commit(); err != nil {
		return season.Season{}, errors.Wrap(err, "commit season create")
	}
	return seasonFromRow(row), nil
}

func (r *SeasonRepository) GetWeekByID(ctx context.Context, weekID string) (season.Week, bool, error) {
	query, args, err := qb.Select(weekColumns...).From("weeks").Where(qb.Eq("id", weekID)).ToSQL()
	if err != nil {
		return season.Week{}, false, errors.Wrap(err, "build get week query")
	}

	var row weekTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Week{}, false, nil
		}
		return season.Week{}, false, errors.Wrap(err, "get week")
	}
	return weekFromRow(row), true, nil
}

func (r *SeasonRepository) ListWeeks(ctx context.Context, seasonID string) ([]season.Week, error) {
	query, args, err := qb.Select(weekColumns...).From("weeks").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("week_number").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list weeks query")
	}

	var rows []weekTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list weeks")
	}

	out := make([]season.Week, 0, len(rows))
	for _, row := range rows {
		out = append(out, weekFromRow(row))
	}
	return out, nil
}

// CreateWeekIfAbsent relies on the (season_id, week_number) unique key, so
// concurrent callers all read back the same row.
func (r *SeasonRepository) CreateWeekIfAbsent(ctx context.Context, w season.Week) (season.Week, error) {
	model := weekTableModel{
		ID:        w.ID,
		SeasonID:  w.SeasonID,
		Number:    w.Number,
		LockAt:    w.LockAt,
		CreatedAt: w.CreatedAt,
	}
	insert, insertArgs, err := qb.InsertModel("weeks", model, "ON CONFLICT (season_id, week_number) DO NOTHING")
	if err != nil {
		return season.Week{}, errors.Wrap(err, "build insert week query")
	}
	if _, err := r.db.ExecContext(ctx, insert, insertArgs...); err != nil {
		return season.Week{}, wrapWriteErr(err, "insert week")
	}

	query, args, err := qb.Select(weekColumns...).From("weeks").
		Where(qb.Eq("season_id", w.SeasonID), qb.Eq("week_number", w.Number)).
		ToSQL()
	if err != nil {
		return season.Week{}, errors.Wrap(err, "build get week by number query")
	}

	var row weekTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return season.Week{}, errors.Wrap(err, "get week by number")
	}
	return weekFromRow(row), nil
}

func (r *SeasonRepository) UpdateWeekLock(ctx context.Context, weekID string, lockAt time.Time) error {
	query, args, err := qb.Update("weeks").
		Set("lock_at", lockAt).
		Where(qb.Eq("id", weekID)).
		ToSQL()
	if err != nil {
		return errors.Wrap(err, "build update week lock query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "update week lock")
	}
	return nil
}
