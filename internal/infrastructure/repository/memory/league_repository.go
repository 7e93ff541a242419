package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

type LeagueRepository struct {
	mu          sync.RWMutex
	leagues     map[string]league.League
	byInvite    map[string]string
	memberships map[string]league.Membership
	joinSeq     int64
}

func NewLeagueRepository() *LeagueRepository {
	return &LeagueRepository{
		leagues:     make(map[string]league.League),
		byInvite:    make(map[string]string),
		memberships: make(map[string]league.Membership),
	}
}

func (r *LeagueRepository) Create(_ context.Context, l league.League) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leagues[l.ID]; ok {
		return errors.Mark(errors.Newf("league %s already exists", l.ID), usecase.ErrConflict)
	}
	if _, ok := r.byInvite[l.InviteCode]; ok {
		return errors.Mark(errors.Newf("invite code %s already taken", l.InviteCode), usecase.ErrConflict)
	}
	r.leagues[l.ID] = l
	r.byInvite[l.InviteCode] = l.ID
	return nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.leagues[leagueID]
	return l, ok, nil
}

func (r *LeagueRepository) GetByInviteCode(_ context.Context, inviteCode string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byInvite[inviteCode]
	if !ok {
		return league.League{}, false, nil
	}
	return r.leagues[id], true, nil
}

// ListByUser returns leagues where the user holds an active membership.
func (r *LeagueRepository) ListByUser(_ context.Context, userID string) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]league.League, 0, 4)
	for _, m := range r.memberships {
		if m.UserID == userID && m.IsActive() {
			out = append(out, r.leagues[m.LeagueID])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *LeagueRepository) UpsertMembership(_ context.Context, m league.Membership) (league.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := membershipKey(m.LeagueID, m.UserID)
	if existing, ok := r.memberships[key]; ok {
		existing.Status = m.Status
		existing.UpdatedAt = m.UpdatedAt
		r.memberships[key] = existing
		return existing, nil
	}

	r.joinSeq++
	m.JoinOrder = r.joinSeq
	r.memberships[key] = m
	return m, nil
}

func (r *LeagueRepository) GetMembership(_ context.Context, leagueID, userID string) (league.Membership, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.memberships[membershipKey(leagueID, userID)]
	return m, ok, nil
}

func (r *LeagueRepository) ListMembers(_ context.Context, leagueID string) ([]league.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]league.Membership, 0, 8)
	for _, m := range r.memberships {
		if m.LeagueID == leagueID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinOrder < out[j].JoinOrder })
	return out, nil
}

func membershipKey(leagueID, userID string) string {
	return leagueID + "::" + userID
}
