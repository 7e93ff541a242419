package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
	qb "github.com/riskibarqy/nfl-pickem/internal/platform/querybuilder"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetOrCreate(ctx context.Context, u user.User) (user.User, error) {
	model := userTableModel{
		ID:          u.ID,
		IdentityKey: u.IdentityKey,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
	insert, insertArgs, err := qb.InsertModel("users", model, "ON CONFLICT (identity_key) DO NOTHING")
	if err != nil {
		return user.User{}, errors.Wrap(err, "build insert user query")
	}
	if _, err := r.db.ExecContext(ctx, insert, insertArgs...); err != nil {
		return user.User{}, wrapWriteErr(err, "insert user")
	}

	stored, ok, err := r.GetByIdentityKey(ctx, u.IdentityKey)
	if err != nil {
		return user.User{}, err
	}
	if !ok {
		return user.User{}, errors.Newf("user %q vanished after insert", u.IdentityKey)
	}
	return stored, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	return r.getUser(ctx, qb.Eq("id", userID))
}

func (r *UserRepository) GetByIdentityKey(ctx context.Context, identityKey string) (user.User, bool, error) {
	return r.getUser(ctx, qb.Eq("identity_key", identityKey))
}

func (r *UserRepository) getUser(ctx context.Context, cond qb.Condition) (user.User, bool, error) {
	query, args, err := qb.Select(userColumns...).From("users").Where(cond).ToSQL()
	if err != nil {
		return user.User{}, false, errors.Wrap(err, "build get user query")
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, errors.Wrap(err, "get user")
	}
	return userFromRow(row), true, nil
}
