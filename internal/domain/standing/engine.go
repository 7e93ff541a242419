package standing

import (
	"math"
	"sort"

	"github.com/riskibarqy/nfl-pickem/internal/domain/game"
	"github.com/riskibarqy/nfl-pickem/internal/domain/league"
	"github.com/riskibarqy/nfl-pickem/internal/domain/pick"
	"github.com/riskibarqy/nfl-pickem/internal/domain/season"
)

// Input is an immutable snapshot of everything a computation reads. The slices may
// come from reads taken at slightly different instants; rows that do not line up
// (picks on unknown games, games outside the weeks) are ignored.
type Input struct {
	Members []league.Membership
	Weeks   []season.Week
	Games   []game.Game
	Picks   []pick.Pick
	Mode    Mode
}

type tally struct {
	correct int
	total   int
}

type gradedWeek struct {
	week    season.Week
	tallies map[string]tally
}

// Compute ranks active members. Only completed games are graded and each correct
// pick is worth one point. Ranks are 1..N without gaps; equal scores are ordered by
// join order. The result is sorted by rank.
func Compute(in Input) []Standing {
	members := activeMembers(in.Members)
	if len(members) == 0 {
		return []Standing{}
	}

	weeks := append([]season.Week(nil), in.Weeks...)
	sort.SliceStable(weeks, func(i, j int) bool { return weeks[i].Number < weeks[j].Number })

	memberSet := make(map[string]struct{}, len(members))
	for _, m := range members {
		memberSet[m.UserID] = struct{}{}
	}
	graded := gradeWeeks(weeks, in.Games, in.Picks, memberSet)

	var scope, previous []gradedWeek
	switch in.Mode {
	case ModeWeek:
		if len(weeks) > 0 && len(graded) > 0 && graded[len(graded)-1].week.ID == weeks[len(weeks)-1].ID {
			scope = graded[len(graded)-1:]
			if len(graded) > 1 {
				previous = graded[len(graded)-2 : len(graded)-1]
			}
		}
	default:
		scope = graded
		if len(graded) > 1 {
			previous = graded[:len(graded)-1]
		}
	}

	totals := sumScores(scope)
	ranks := rankMembers(members, totals)
	var previousRanks map[string]int
	if len(previous) > 0 {
		previousRanks = rankMembers(members, sumScores(previous))
	}

	weeklyRanks := make([]map[string]int, len(scope))
	for i, gw := range scope {
		weeklyRanks[i] = rankMembers(members, sumScores([]gradedWeek{gw}))
	}

	out := make([]Standing, 0, len(members))
	for _, m := range members {
		row := Standing{
			UserID:     m.UserID,
			JoinOrder:  m.JoinOrder,
			TotalScore: totals[m.UserID],
			Weeks:      make([]WeekScore, 0, len(scope)),
			Rank:       ranks[m.UserID],
		}

		scores := make([]int, 0, len(scope))
		for i, gw := range scope {
			t := gw.tallies[m.UserID]
			row.Weeks = append(row.Weeks, WeekScore{
				WeekID:       gw.week.ID,
				WeekNumber:   gw.week.Number,
				Score:        t.correct,
				CorrectPicks: t.correct,
				TotalPicks:   t.total,
				Rank:         weeklyRanks[i][m.UserID],
			})
			scores = append(scores, t.correct)
		}
		row.Stats = summarize(scores)

		if prev, ok := previousRanks[m.UserID]; ok {
			row.PreviousRank = &prev
		}
		row.Trend = ResolveTrend(row.Rank, row.PreviousRank)
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// activeMembers keeps active memberships, one per user, ordered by join order.
func activeMembers(items []league.Membership) []league.Membership {
	seen := make(map[string]int, len(items))
	out := make([]league.Membership, 0, len(items))
	for _, m := range league.ActiveMembers(items) {
		if m.UserID == "" {
			continue
		}
		if idx, ok := seen[m.UserID]; ok {
			if m.JoinOrder < out[idx].JoinOrder {
				out[idx] = m
			}
			continue
		}
		seen[m.UserID] = len(out)
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].JoinOrder != out[j].JoinOrder {
			return out[i].JoinOrder < out[j].JoinOrder
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// gradeWeeks tallies member picks on completed games. Weeks without any completed
// game are dropped so future weeks never count as scoreless.
func gradeWeeks(weeks []season.Week, games []game.Game, picks []pick.Pick, members map[string]struct{}) []gradedWeek {
	weekIdx := make(map[string]int, len(weeks))
	for i, w := range weeks {
		weekIdx[w.ID] = i
	}

	gamesByID := make(map[string]game.Game, len(games))
	completed := make([]int, len(weeks))
	for _, g := range games {
		i, ok := weekIdx[g.WeekID]
		if !ok {
			continue
		}
		gamesByID[g.ID] = g
		if g.Status == game.StatusCompleted {
			completed[i]++
		}
	}

	tallies := make([]map[string]tally, len(weeks))
	for i := range tallies {
		tallies[i] = make(map[string]tally)
	}
	for _, p := range latestPicks(picks) {
		if _, ok := members[p.UserID]; !ok {
			continue
		}
		g, ok := gamesByID[p.GameID]
		if !ok || g.Status != game.StatusCompleted {
			continue
		}

		i := weekIdx[g.WeekID]
		t := tallies[i][p.UserID]
		t.total++
		if winner, ok := g.Winner(); ok && winner == p.SelectedTeamID {
			t.correct++
		}
		tallies[i][p.UserID] = t
	}

	out := make([]gradedWeek, 0, len(weeks))
	for i, w := range weeks {
		if completed[i] == 0 {
			continue
		}
		out = append(out, gradedWeek{week: w, tallies: tallies[i]})
	}
	return out
}

// latestPicks collapses duplicate (user, game) rows to the most recently updated one.
func latestPicks(picks []pick.Pick) map[string]pick.Pick {
	out := make(map[string]pick.Pick, len(picks))
	for _, p := range picks {
		key := p.Key()
		current, ok := out[key]
		if !ok || p.UpdatedAt.After(current.UpdatedAt) || (p.UpdatedAt.Equal(current.UpdatedAt) && p.ID > current.ID) {
			out[key] = p
		}
	}
	return out
}

func sumScores(weeks []gradedWeek) map[string]int {
	out := make(map[string]int)
	for _, gw := range weeks {
		for userID, t := range gw.tallies {
			out[userID] += t.correct
		}
	}
	return out
}

// rankMembers expects members in join order and returns distinct contiguous ranks.
func rankMembers(members []league.Membership, scores map[string]int) map[string]int {
	ordered := append([]league.Membership(nil), members...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return scores[ordered[i].UserID] > scores[ordered[j].UserID]
	})

	ranks := make(map[string]int, len(ordered))
	for i, m := range ordered {
		ranks[m.UserID] = i + 1
	}
	return ranks
}

func summarize(scores []int) Stats {
	if len(scores) == 0 {
		return Stats{}
	}

	best, worst, total := scores[0], scores[0], 0
	current, longest := 0, 0
	for _, s := range scores {
		total += s
		best = max(best, s)
		worst = min(worst, s)
		if s > 0 {
			current++
			longest = max(longest, current)
		} else {
			current = 0
		}
	}

	mean := float64(total) / float64(len(scores))
	var variance float64
	for _, s := range scores {
		d := float64(s) - mean
		variance += d * d
	}
	variance /= float64(len(scores))

	return Stats{
		AverageScore:  round2(mean),
		BestWeek:      best,
		WorstWeek:     worst,
		Consistency:   Consistency(variance),
		CurrentStreak: current,
		LongestStreak: longest,
	}
}

// Consistency maps a variance to (0, 100]; zero variance scores 100 and the value
// never increases as variance grows.
func Consistency(variance float64) float64 {
	if variance < 0 || math.IsNaN(variance) {
		variance = 0
	}
	return round2(100 / (1 + math.Sqrt(variance)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
