// Package scoring derives a client's FitScore from body measurements,
// training sessions and daily logs. Every function is pure: "now" is an
// argument and nothing here performs I/O.
package scoring

import (
	"time"

	"github.com/claude/repcoach/internal/models"
)

// Overall weights and bonuses.
const (
	primaryWeight   = 0.5
	secondaryWeight = 0.3
	balanceWeight   = 0.2

	primaryBonusAbove     = 90.0
	primaryBonus          = 50.0
	consistencyBonusAbove = 95.0
	consistencyBonus      = 25.0
	progressionBonusAbove = 90.0
	progressionBonus      = 25.0
)

// Update returns a new FitScore with measurements, sessions, nutrition and
// lifestyle applied to a copy of current. current itself is not modified,
// so a caller that fails to persist the result still holds the old score.
func Update(current models.FitScore, client *models.Client, sessions []models.Session, now time.Time) models.FitScore {
	fs := current
	ScoreFromMeasurements(&fs, client)
	ScoreFromSessions(&fs, sessions, now)
	if client != nil {
		ScoreFromNutrition(&fs, client.NutritionLogs, now)
		ScoreFromLifestyle(&fs, client.LifestyleLogs, now)
	}
	ComputeOverallScore(&fs)
	fs.UpdatedAt = now
	return fs
}

// ComputeOverallScore recomputes fs.Overall from the component and balance
// scores. The result is in [0,1000].
func ComputeOverallScore(fs *models.FitScore) {
	primary := mean(fs.Strength, fs.Endurance, fs.Mobility, fs.BodyComposition, fs.Consistency)
	secondary := mean(fs.Nutrition, fs.Recovery, fs.Progression, fs.Technique, fs.Mental)
	balance := mean(fs.UpperBody, fs.LowerBody, fs.Core, fs.MuscleBalance)

	overall := (primary*primaryWeight + secondary*secondaryWeight + balance*balanceWeight) * 10
	if primary > primaryBonusAbove {
		overall += primaryBonus
	}
	if fs.Consistency > consistencyBonusAbove {
		overall += consistencyBonus
	}
	if fs.Progression > progressionBonusAbove {
		overall += progressionBonus
	}
	fs.Overall = clamp(overall, 0, models.MaxOverallScore)
}

// CategoryOf maps an overall score onto its band.
func CategoryOf(overall float64) models.ScoreCategory {
	switch {
	case overall >= 900:
		return models.CategoryElite
	case overall >= 800:
		return models.CategoryExcellent
	case overall >= 700:
		return models.CategoryGood
	case overall >= 600:
		return models.CategoryFair
	case overall >= 500:
		return models.CategoryDeveloping
	default:
		return models.CategoryNeedsWork
	}
}

// Band describes one category range, inclusive of Min.
type Band struct {
	Category models.ScoreCategory `json:"category"`
	Min      float64              `json:"min"`
	Max      float64              `json:"max"`
}

// Bands lists the categories from highest to lowest.
func Bands() []Band {
	return []Band{
		{models.CategoryElite, 900, 1000},
		{models.CategoryExcellent, 800, 900},
		{models.CategoryGood, 700, 800},
		{models.CategoryFair, 600, 700},
		{models.CategoryDeveloping, 500, 600},
		{models.CategoryNeedsWork, 0, 500},
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func clampComponent(v float64) float64 {
	return clamp(v, 0, models.MaxComponentScore)
}

func mean(vs ...float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// within reports whether t falls in the trailing window ending at now.
func within(t, now time.Time, days int) bool {
	return !t.Before(now.AddDate(0, 0, -days))
}
