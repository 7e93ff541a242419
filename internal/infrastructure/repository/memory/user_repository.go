package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
)

type UserRepository struct {
	mu         sync.RWMutex
	items      map[string]user.User
	byIdentity map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		items:      make(map[string]user.User),
		byIdentity: make(map[string]string),
	}
}

func (r *UserRepository) GetOrCreate(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byIdentity[u.IdentityKey]; ok {
		return r.items[id], nil
	}
	r.items[u.ID] = u
	r.byIdentity[u.IdentityKey] = u.ID
	return u, nil
}

func (r *UserRepository) GetByID(_ context.Context, userID string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[userID]
	return u, ok, nil
}

func (r *UserRepository) GetByIdentityKey(_ context.Context, identityKey string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIdentity[identityKey]
	if !ok {
		return user.User{}, false, nil
	}
	return r.items[id], true, nil
}
