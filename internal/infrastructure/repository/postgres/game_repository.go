package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	qb "github.com/riskibarqy/nfl-pickem/internal/platform/querybuilder"
)

const gameUpsertSuffix = `ON CONFLICT (external_id) DO UPDATE SET
    week_id = EXCLUDED.week_id,
    home_team_id = EXCLUDED.home_team_id,
    away_team_id = EXCLUDED.away_team_id,
    starts_at = EXCLUDED.starts_at,
    updated_at = EXCLUDED.updated_at`

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	return r.getGame(ctx, qb.Eq("id", gameID))
}

func (r *GameRepository) GetByExternalID(ctx context.Context, externalID string) (game.Game, bool, error) {
	return r.getGame(ctx, qb.Eq("external_id", externalID))
}

func (r *GameRepository) getGame(ctx context.Context, cond qb.Condition) (game.Game, bool, error) {
	query, args, err := qb.Select(gameColumns...).From("games").Where(cond).ToSQL()
	if err != nil {
		return game.Game{}, false, errors.Wrap(err, "build get game query")
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, errors.Wrap(err, "get game")
	}
	return gameFromRow(row), true, nil
}

func (r *GameRepository) ListByWeek(ctx context.Context, weekID string) ([]game.Game, error) {
	return r.ListByWeeks(ctx, []string{weekID})
}

func (r *GameRepository) ListByWeeks(ctx context.Context, weekIDs []string) ([]game.Game, error) {
	if len(weekIDs) == 0 {
		return []game.Game{}, nil
	}

	query, args, err := qb.Select(gameColumns...).From("games").
		Where(qb.In("week_id", anyStrings(weekIDs))).
		OrderBy("starts_at", "seq").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list games query")
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list games")
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row))
	}
	return out, nil
}

func (r *GameRepository) Upsert(ctx context.Context, g game.Game) (game.Game, error) {
	query, args, err := qb.InsertModel("games", gameToRow(g), gameUpsertSuffix, gameColumns...)
	if err != nil {
		return game.Game{}, errors.Wrap(err, "build upsert game query")
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return game.Game{}, wrapWriteErr(err, "upsert game")
	}
	return gameFromRow(row), nil
}

// UpdateResult is a compare-and-set on status: the row is written only while its
// stored status is one of fromStatuses.
func (r *GameRepository) UpdateResult(ctx context.Context, g game.Game, fromStatuses []game.Status) (game.Game, bool, error) {
	from := make([]any, 0, len(fromStatuses))
	for _, s := range fromStatuses {
		from = append(from, string(s))
	}

	query, args, err := qb.Update("games").
		Set("status", string(g.Status)).
		Set("home_score", g.HomeScore).
		Set("away_score", g.AwayScore).
		Set("updated_at", g.UpdatedAt).
		Where(qb.Eq("id", g.ID), qb.In("status", from)).
		Returning(gameColumns...).
		ToSQL()
	if err != nil {
		return game.Game{}, false, errors.Wrap(err, "build update game result query")
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, errors.Wrap(err, "update game result")
	}
	return gameFromRow(row), true, nil
}
