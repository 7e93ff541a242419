package league

import "context"

type Repository interface {
	Create(ctx context.Context, l League) error
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	GetByInviteCode(ctx context.Context, inviteCode string) (League, bool, error)
	ListByUser(ctx context.Context, userID string) ([]League, error)

	// UpsertMembership sets the membership status. A first join is assigned the
	// next join order; later calls keep the stored join order and JoinedAt.
	UpsertMembership(ctx context.Context, m Membership) (Membership, error)
	GetMembership(ctx context.Context, leagueID, userID string) (Membership, bool, error)
	// ListMembers returns memberships of any status ordered by join order.
	ListMembers(ctx context.Context, leagueID string) ([]Membership, error)
}
