package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-pickem/internal/domain/pick"
	qb "github.com/riskibarqy/nfl-pickem/internal/platform/querybuilder"
)

// Resubmission keeps id and created_at; concurrent writers resolve to last-writer-wins.
const pickUpsertSuffix = `ON CONFLICT (user_id, game_id) DO UPDATE SET
    week_id = EXCLUDED.week_id,
    selected_team_id = EXCLUDED.selected_team_id,
    is_home_team_pick = EXCLUDED.is_home_team_pick,
    updated_at = EXCLUDED.updated_at`

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) Upsert(ctx context.Context, p pick.Pick) (pick.Pick, error) {
	model := pickTableModel{
		ID:             p.ID,
		UserID:         p.UserID,
		WeekID:         p.WeekID,
		GameID:         p.GameID,
		SelectedTeamID: p.SelectedTeamID,
		IsHomeTeamPick: p.IsHomeTeamPick,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	query, args, err := qb.InsertModel("picks", model, pickUpsertSuffix, pickColumns...)
	if err != nil {
		return pick.Pick{}, errors.Wrap(err, "build upsert pick query")
	}

	var row pickTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return pick.Pick{}, wrapWriteErr(err, "upsert pick")
	}
	return pickFromRow(row), nil
}

func (r *PickRepository) ListByUser(ctx context.Context, userID, weekID string) ([]pick.Pick, error) {
	conds := []qb.Condition{qb.Eq("user_id", userID)}
	if weekID != "" {
		conds = append(conds, qb.Eq("week_id", weekID))
	}
	return r.list(ctx, conds...)
}

func (r *PickRepository) ListByWeeks(ctx context.Context, weekIDs []string) ([]pick.Pick, error) {
	if len(weekIDs) == 0 {
		return []pick.Pick{}, nil
	}
	return r.list(ctx, qb.In("week_id", anyStrings(weekIDs)))
}

func (r *PickRepository) list(ctx context.Context, conds ...qb.Condition) ([]pick.Pick, error) {
	query, args, err := qb.Select(pickColumns...).From("picks").
		Where(conds...).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list picks query")
	}

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list picks")
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, pickFromRow(row))
	}
	return out, nil
}
