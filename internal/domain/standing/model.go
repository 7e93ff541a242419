package standing

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendSame Trend = "same"
)

// Mode selects what a computation covers.
type Mode int

const (
	// ModeSeason accumulates every graded week up to the last week given.
	ModeSeason Mode = iota
	// ModeWeek scores only the last week given; earlier weeks feed the trend.
	ModeWeek
)

// WeekScore is one member's result for a graded week.
type WeekScore struct {
	WeekID       string
	WeekNumber   int
	Score        int
	CorrectPicks int
	TotalPicks   int
	Rank         int
}

type Stats struct {
	AverageScore  float64
	BestWeek      int
	WorstWeek     int
	Consistency   float64
	CurrentStreak int
	LongestStreak int
}

// Standing is a derived league row. It is never persisted.
type Standing struct {
	UserID       string
	JoinOrder    int64
	TotalScore   int
	Weeks        []WeekScore
	Stats        Stats
	Rank         int
	PreviousRank *int
	Trend        Trend
}

// ResolveTrend compares the current rank with the previous one; a lower rank number is better.
func ResolveTrend(current int, previous *int) Trend {
	if previous == nil || current <= 0 {
		return TrendSame
	}
	switch {
	case current < *previous:
		return TrendUp
	case current > *previous:
		return TrendDown
	default:
		return TrendSame
	}
}
