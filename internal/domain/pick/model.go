package pick

import "time"

// Pick is one user's selection for one game. (UserID, GameID) is unique.
type Pick struct {
	ID             string
	UserID         string
	WeekID         string
	GameID         string
	SelectedTeamID string
	IsHomeTeamPick bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Key is the composite identity of a pick.
func (p Pick) Key() string {
	return p.UserID + "::" + p.GameID
}
