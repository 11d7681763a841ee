package models

import "time"

// Trend is the direction of a client's training frequency over a window.
type Trend string

const (
	TrendImproving   Trend = "improving"
	TrendMaintaining Trend = "maintaining"
	TrendDeclining   Trend = "declining"
)

// ScoreCategory is the banded label for an overall score.
type ScoreCategory string

const (
	CategoryElite      ScoreCategory = "Elite"
	CategoryExcellent  ScoreCategory = "Excellent"
	CategoryGood       ScoreCategory = "Good"
	CategoryFair       ScoreCategory = "Fair"
	CategoryDeveloping ScoreCategory = "Developing"
	CategoryNeedsWork  ScoreCategory = "Needs Work"
)

// Score bounds.
const (
	DefaultComponentScore = 50.0
	DefaultOverallScore   = 500.0
	MaxComponentScore     = 100.0
	MaxOverallScore       = 1000.0
)

// FitScore is a client's composite fitness score. Components are in
// [0,100], Overall in [0,1000]. Only the scoring package mutates it.
type FitScore struct {
	Strength        float64 `json:"strength"`
	Endurance       float64 `json:"endurance"`
	Mobility        float64 `json:"mobility"`
	BodyComposition float64 `json:"body_composition"`
	Consistency     float64 `json:"consistency"`
	Nutrition       float64 `json:"nutrition"`
	Recovery        float64 `json:"recovery"`
	Progression     float64 `json:"progression"`
	Technique       float64 `json:"technique"`
	Mental          float64 `json:"mental"`

	UpperBody     float64 `json:"upper_body"`
	LowerBody     float64 `json:"lower_body"`
	Core          float64 `json:"core"`
	MuscleBalance float64 `json:"muscle_balance"`

	Overall float64 `json:"overall"`

	WeeklyTrend    Trend `json:"weekly_trend"`
	MonthlyTrend   Trend `json:"monthly_trend"`
	QuarterlyTrend Trend `json:"quarterly_trend"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewFitScore returns the onboarding score: every component 50,
// overall 500, all trends maintaining.
func NewFitScore() FitScore {
	d := DefaultComponentScore
	return FitScore{
		Strength:        d,
		Endurance:       d,
		Mobility:        d,
		BodyComposition: d,
		Consistency:     d,
		Nutrition:       d,
		Recovery:        d,
		Progression:     d,
		Technique:       d,
		Mental:          d,
		UpperBody:       d,
		LowerBody:       d,
		Core:            d,
		MuscleBalance:   d,
		Overall:         DefaultOverallScore,
		WeeklyTrend:     TrendMaintaining,
		MonthlyTrend:    TrendMaintaining,
		QuarterlyTrend:  TrendMaintaining,
	}
}

// Components returns the ten weighted components keyed by name.
func (f FitScore) Components() map[string]float64 {
	return map[string]float64{
		"strength":         f.Strength,
		"endurance":        f.Endurance,
		"mobility":         f.Mobility,
		"body_composition": f.BodyComposition,
		"consistency":      f.Consistency,
		"nutrition":        f.Nutrition,
		"recovery":         f.Recovery,
		"progression":      f.Progression,
		"technique":        f.Technique,
		"mental":           f.Mental,
	}
}
