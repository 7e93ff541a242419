package league

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipInactive MembershipStatus = "inactive"
)

const maxNameLength = 80

// League groups users competing on the same picks.
type League struct {
	ID          string
	Name        string
	OwnerUserID string
	InviteCode  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (l League) Validate() error {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return errors.New("league name is required")
	}
	if len(name) > maxNameLength {
		return errors.Newf("league name must be at most %d characters", maxNameLength)
	}
	if strings.TrimSpace(l.OwnerUserID) == "" {
		return errors.New("league owner is required")
	}
	return nil
}

// Membership links a user to a league. JoinOrder is assigned once at first join
// and breaks standings ties.
type Membership struct {
	LeagueID  string
	UserID    string
	Status    MembershipStatus
	JoinOrder int64
	JoinedAt  time.Time
	UpdatedAt time.Time
}

func (m Membership) IsActive() bool {
	return m.Status == MembershipActive
}

// ActiveMembers filters memberships down to active ones, keeping order.
func ActiveMembers(items []Membership) []Membership {
	out := make([]Membership, 0, len(items))
	for _, m := range items {
		if m.IsActive() {
			out = append(out, m)
		}
	}
	return out
}
