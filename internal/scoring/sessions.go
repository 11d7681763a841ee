package scoring

import (
	"sort"
	"time"

	"github.com/claude/repcoach/internal/models"
)

const (
	consistencyWindowDays = 28
	consistencyTarget     = 12.0
	strengthVolumeTarget  = 5000.0
	progressionNeutral    = 50.0
	progressionScale      = 10.0
)

// trendRule grades the number of sessions in a trailing window.
type trendRule struct {
	days        int
	improving   int
	maintaining int
}

var (
	weeklyTrend    = trendRule{days: 7, improving: 3, maintaining: 2}
	monthlyTrend   = trendRule{days: 30, improving: 12, maintaining: 8}
	quarterlyTrend = trendRule{days: 90, improving: 36, maintaining: 24}
)

func (r trendRule) grade(sessions []models.Session, now time.Time) models.Trend {
	n := countWithin(sessions, now, r.days)
	switch {
	case n >= r.improving:
		return models.TrendImproving
	case n >= r.maintaining:
		return models.TrendMaintaining
	default:
		return models.TrendDeclining
	}
}

// ScoreFromSessions updates consistency, strength, progression, technique
// and the trends from the client's completed sessions, then recomputes the
// overall score. Scheduled and cancelled sessions are ignored. With no
// completed sessions fs is left untouched.
func ScoreFromSessions(fs *models.FitScore, sessions []models.Session, now time.Time) {
	done := completed(sessions)
	if len(done) == 0 {
		return
	}

	recent := countWithin(done, now, consistencyWindowDays)
	fs.Consistency = clampComponent(float64(recent) / consistencyTarget * 100)

	var volume float64
	for _, s := range done {
		volume += s.TotalVolume
	}
	fs.Strength = clampComponent(volume / float64(len(done)) / strengthVolumeTarget * 100)

	fs.Progression = progression(done)

	var ratings []float64
	for _, s := range done {
		if s.TechniqueQuality != nil {
			ratings = append(ratings, float64(*s.TechniqueQuality))
		}
	}
	if len(ratings) > 0 {
		fs.Technique = clampComponent(mean(ratings...) * 10)
	}

	fs.WeeklyTrend = weeklyTrend.grade(done, now)
	fs.MonthlyTrend = monthlyTrend.grade(done, now)
	fs.QuarterlyTrend = quarterlyTrend.grade(done, now)

	ComputeOverallScore(fs)
}

// progression compares average volume of the older half of the history
// with the newer half. For odd counts the middle session is in neither.
func progression(sessions []models.Session) float64 {
	if len(sessions) < 2 {
		return progressionNeutral
	}
	sorted := make([]models.Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	half := len(sorted) / 2
	first := averageVolume(sorted[:half])
	second := averageVolume(sorted[len(sorted)-half:])
	if first <= 0 {
		return progressionNeutral
	}
	change := (second - first) / first * 100
	return clampComponent(change*progressionScale + progressionNeutral)
}

func averageVolume(sessions []models.Session) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sessions {
		sum += s.TotalVolume
	}
	return sum / float64(len(sessions))
}

func completed(sessions []models.Session) []models.Session {
	out := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Status == models.StatusCompleted {
			out = append(out, s)
		}
	}
	return out
}

func countWithin(sessions []models.Session, now time.Time, days int) int {
	n := 0
	for _, s := range sessions {
		if within(s.Date, now, days) {
			n++
		}
	}
	return n
}
