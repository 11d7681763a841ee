package scoring

import (
	"time"

	"github.com/claude/repcoach/internal/models"
)

const logWindowDays = 30

// ScoreFromNutrition sets the nutrition score to the mean adherence over
// the last 30 days, scaled to 0-100. No logs in the window means no change.
func ScoreFromNutrition(fs *models.FitScore, logs []models.NutritionLog, now time.Time) {
	var vals []float64
	for _, l := range logs {
		if within(l.Date, now, logWindowDays) {
			vals = append(vals, float64(l.Adherence))
		}
	}
	if len(vals) == 0 {
		return
	}
	fs.Nutrition = clampComponent(mean(vals...) * 10)
}

// ScoreFromLifestyle sets the recovery score to the mean daily recovery
// over the last 30 days.
func ScoreFromLifestyle(fs *models.FitScore, logs []models.LifestyleLog, now time.Time) {
	var vals []float64
	for _, l := range logs {
		if within(l.Date, now, logWindowDays) {
			vals = append(vals, l.RecoveryScore())
		}
	}
	if len(vals) == 0 {
		return
	}
	fs.Recovery = clampComponent(mean(vals...))
}
