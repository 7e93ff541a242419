package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	qb "github.com/riskibarqy/nfl-pickem/internal/platform/querybuilder"
)

const membershipUpsertSuffix = `ON CONFLICT (league_id, user_id) DO UPDATE SET
    status = EXCLUDED.status,
    updated_at = EXCLUDED.updated_at`

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) Create(ctx context.Context, l league.League) error {
	model := leagueTableModel{
		ID:          l.ID,
		Name:        l.Name,
		OwnerUserID: l.OwnerUserID,
		InviteCode:  l.InviteCode,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	query, args, err := qb.InsertModel("leagues", model, "")
	if err != nil {
		return errors.Wrap(err, "build insert league query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapWriteErr(err, "insert league")
	}
	return nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	return r.getLeague(ctx, qb.Eq("id", leagueID))
}

func (r *LeagueRepository) GetByInviteCode(ctx context.Context, inviteCode string) (league.League, bool, error) {
	return r.getLeague(ctx, qb.Eq("invite_code", inviteCode))
}

func (r *LeagueRepository) getLeague(ctx context.Context, cond qb.Condition) (league.League, bool, error) {
	query, args, err := qb.Select(leagueColumns...).From("leagues").Where(cond).ToSQL()
	if err != nil {
		return league.League{}, false, errors.Wrap(err, "build get league query")
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, errors.Wrap(err, "get league")
	}
	return leagueFromRow(row), true, nil
}

func (r *LeagueRepository) ListByUser(ctx context.Context, userID string) ([]league.League, error) {
	columns := make([]string, 0, len(leagueColumns))
	for _, c := range leagueColumns {
		columns = append(columns, "l."+c)
	}
	query, args, err := qb.Select(columns...).
		From("leagues l JOIN league_memberships m ON m.league_id = l.id").
		Where(
			qb.Eq("m.user_id", userID),
			qb.Eq("m.status", string(league.MembershipActive)),
		).
		OrderBy("l.created_at", "l.id").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list user leagues query")
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list user leagues")
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, leagueFromRow(row))
	}
	return out, nil
}

// UpsertMembership lets join_order default from its sequence on first insert;
// later upserts only touch status.
func (r *LeagueRepository) UpsertMembership(ctx context.Context, m league.Membership) (league.Membership, error) {
	model := membershipTableModel{
		LeagueID:  m.LeagueID,
		UserID:    m.UserID,
		Status:    string(m.Status),
		JoinedAt:  m.JoinedAt,
		UpdatedAt: m.UpdatedAt,
	}
	query, args, err := qb.InsertModel("league_memberships", model, membershipUpsertSuffix, membershipColumns...)
	if err != nil {
		return league.Membership{}, errors.Wrap(err, "build upsert membership query")
	}

	var row membershipTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return league.Membership{}, wrapWriteErr(err, "upsert membership")
	}
	return membershipFromRow(row), nil
}

func (r *LeagueRepository) GetMembership(ctx context.Context, leagueID, userID string) (league.Membership, bool, error) {
	query, args, err := qb.Select(membershipColumns...).From("league_memberships").
		Where(qb.Eq("league_id", leagueID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return league.Membership{}, false, errors.Wrap(err, "build get membership query")
	}

	var row membershipTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.Membership{}, false, nil
		}
		return league.Membership{}, false, errors.Wrap(err, "get membership")
	}
	return membershipFromRow(row), true, nil
}

func (r *LeagueRepository) ListMembers(ctx context.Context, leagueID string) ([]league.Membership, error) {
	query, args, err := qb.Select(membershipColumns...).From("league_memberships").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("join_order").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list members query")
	}

	var rows []membershipTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list members")
	}

	out := make([]league.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipFromRow(row))
	}
	return out, nil
}
