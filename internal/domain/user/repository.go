package user

import "context"

type Repository interface {
	// GetOrCreate returns the user with u.IdentityKey, inserting u when absent.
	GetOrCreate(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, userID string) (User, bool, error)
	GetByIdentityKey(ctx context.Context, identityKey string) (User, bool, error)
}
