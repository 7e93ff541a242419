package season

import (
	"time"

	"github.com/cockroachdb/errors"
)

// RegularSeasonWeeks is the length of the NFL regular season since 2021.
const RegularSeasonWeeks = 18

const week = 7 * 24 * time.Hour

// defaultLockOffset places the default week lock on the Tuesday after kickoff
// Thursday, i.e. after Monday night games.
const defaultLockOffset = 5 * 24 * time.Hour

// Season is a year-scoped container of weeks. At most one season is active.
type Season struct {
	ID        string
	Year      int
	StartsOn  time.Time
	EndsOn    time.Time
	Active    bool
	NumWeeks  int
	CreatedAt time.Time
}

// Week belongs to one season. Number is unique within the season.
type Week struct {
	ID        string
	SeasonID  string
	Number    int
	LockAt    time.Time
	CreatedAt time.Time
}

// New builds an active regular season for the given year.
func New(year int) Season {
	start := KickoffThursday(year)
	return Season{
		Year:     year,
		StartsOn: start,
		EndsOn:   start.Add(RegularSeasonWeeks*week - 24*time.Hour),
		Active:   true,
		NumWeeks: RegularSeasonWeeks,
	}
}

func (s Season) Validate() error {
	if s.Year < 1920 {
		return errors.Newf("season year %d is out of range", s.Year)
	}
	if s.NumWeeks < 1 {
		return errors.New("season must have at least one week")
	}
	if !s.EndsOn.After(s.StartsOn) {
		return errors.New("season end must be after start")
	}
	return nil
}

// KickoffThursday returns the Thursday after Labor Day (first Monday of September) in UTC.
func KickoffThursday(year int) time.Time {
	d := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 3)
}

// YearAt maps an instant to its season year. January and February games belong
// to the previous year's season.
func YearAt(t time.Time) int {
	t = t.UTC()
	if t.Month() < time.March {
		return t.Year() - 1
	}
	return t.Year()
}

// WeekStart is the kickoff Thursday of week n.
func (s Season) WeekStart(n int) time.Time {
	return s.StartsOn.Add(time.Duration(n-1) * week)
}

// DefaultLockAt is the lock time for week n before any games are scheduled in it.
func (s Season) DefaultLockAt(n int) time.Time {
	return s.WeekStart(n).Add(defaultLockOffset)
}

// WeekNumberAt returns the first week whose default lock is still ahead of t,
// or the final week once the season has run out.
func (s Season) WeekNumberAt(t time.Time) int {
	for n := 1; n <= s.NumWeeks; n++ {
		if s.DefaultLockAt(n).After(t) {
			return n
		}
	}
	return s.NumWeeks
}

func (w Week) Validate(numWeeks int) error {
	if w.SeasonID == "" {
		return errors.New("season id is required")
	}
	if w.Number < 1 || (numWeeks > 0 && w.Number > numWeeks) {
		return errors.Newf("week number %d is out of range 1..%d", w.Number, numWeeks)
	}
	return nil
}

// IsOpen reports whether picks may still be made for some game in the week.
func (w Week) IsOpen(now time.Time) bool {
	return w.LockAt.After(now)
}

// CurrentWeek picks the earliest week whose lock has not passed, falling back to
// the most recently started week. Weeks must be ordered by number.
func CurrentWeek(weeks []Week, now time.Time) (Week, bool) {
	if len(weeks) == 0 {
		return Week{}, false
	}
	for _, w := range weeks {
		if w.IsOpen(now) {
			return w, true
		}
	}
	return weeks[len(weeks)-1], true
}
