package stats

import (
	"sort"
	"time"

	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
)

// Badge IDs, as the client renders them.
const (
	BadgeTestTaker          = "test_taker"
	BadgeImprovementChamp   = "improvement_champion"
	BadgeSevenDayStreak     = "7_day_streak"
	BadgeLowBurnoutChampion = "low_burnout_champion"
)

const (
	pointsPerTest  = 10
	pointsPerBadge = 25
	streakBadgeLen = 7
)

// Achievements is the gamification view of one employee's history.
type Achievements struct {
	Points int
	// Streak is the run of consecutive UTC days with a test ending at the
	// latest test day. It drops to 0 once a full day passes without a test.
	Streak int
	// LastStreakDate is the UTC day of the latest test; zero when untested.
	LastStreakDate time.Time
	// Badges are in a fixed order: test taker, improvement, streak, low.
	Badges []string
}

// ComputeAchievements derives points, streak and badges from a history in
// insertion order.
//
//	test_taker            at least one result
//	improvement_champion  latest total below the previous total
//	7_day_streak          tests on 7 consecutive days, at any time
//	low_burnout_champion  latest result low by the component rule
func ComputeAchievements(results []Entry, now time.Time) Achievements {
	a := Achievements{Badges: []string{}}
	if len(results) == 0 {
		return a
	}

	ordered := chronological(results)
	latest := ordered[len(ordered)-1]

	a.Badges = append(a.Badges, BadgeTestTaker)
	if len(ordered) > 1 && latest.TotalScore < ordered[len(ordered)-2].TotalScore {
		a.Badges = append(a.Badges, BadgeImprovementChamp)
	}

	days := testDays(ordered)
	if longestRun(days) >= streakBadgeLen {
		a.Badges = append(a.Badges, BadgeSevenDayStreak)
	}
	if scoring.ClassifyByComponents(latest.EmotionalExhaustion, latest.Depersonalization) == scoring.RiskLow {
		a.Badges = append(a.Badges, BadgeLowBurnoutChampion)
	}

	last := days[len(days)-1]
	a.LastStreakDate = last
	if !day(now).After(last.AddDate(0, 0, 1)) {
		a.Streak = trailingRun(days)
	}
	a.Points = pointsPerTest*len(results) + pointsPerBadge*len(a.Badges)
	return a
}

// chronological orders by CreatedAt; equal timestamps keep insertion order,
// so the last element is what Latest returns.
func chronological(results []Entry) []Entry {
	out := make([]Entry, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// testDays returns the distinct UTC days of ordered, ascending.
func testDays(ordered []Entry) []time.Time {
	var days []time.Time
	for _, e := range ordered {
		d := day(e.CreatedAt)
		if len(days) == 0 || !days[len(days)-1].Equal(d) {
			days = append(days, d)
		}
	}
	return days
}

func consecutive(prev, next time.Time) bool {
	return prev.AddDate(0, 0, 1).Equal(next)
}

func longestRun(days []time.Time) int {
	best, run := 0, 0
	for i, d := range days {
		if i > 0 && consecutive(days[i-1], d) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}

func trailingRun(days []time.Time) int {
	run := 1
	for i := len(days) - 1; i > 0 && consecutive(days[i-1], days[i]); i-- {
		run++
	}
	return run
}
