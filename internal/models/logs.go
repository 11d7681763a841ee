package models

import (
	"time"

	"github.com/google/uuid"
)

// NutritionLog is one day of tracked intake. Adherence is a 1-10 rating
// of how closely the client followed their plan.
type NutritionLog struct {
	ID        uuid.UUID `json:"id"`
	ClientID  uuid.UUID `json:"client_id"`
	Date      time.Time `json:"date"`
	Calories  int       `json:"calories"`
	ProteinG  float64   `json:"protein_g"`
	CarbsG    float64   `json:"carbs_g"`
	FatG      float64   `json:"fat_g"`
	WaterL    float64   `json:"water_l"`
	Adherence int       `json:"adherence"`
	Notes     string    `json:"notes,omitempty"`
}

// LifestyleLog is one day of self-reported recovery inputs.
// SleepQuality, StressLevel and Hydration are 1-10 ratings.
type LifestyleLog struct {
	ID           uuid.UUID `json:"id"`
	ClientID     uuid.UUID `json:"client_id"`
	Date         time.Time `json:"date"`
	SleepHours   float64   `json:"sleep_hours"`
	SleepQuality int       `json:"sleep_quality"`
	StressLevel  int       `json:"stress_level"`
	Hydration    int       `json:"hydration"`
	Notes        string    `json:"notes,omitempty"`
}

// RecoveryScore maps the day's inputs onto 0-100. Eight hours of sleep
// counts as full sleep; more does not add.
func (l LifestyleLog) RecoveryScore() float64 {
	sleep := 0.0
	if l.SleepHours > 0 {
		sleep = min(l.SleepHours/8, 1)
	}
	v := (sleep*float64(l.SleepQuality) + float64(10-l.StressLevel) + float64(l.Hydration)) / 3 * 10
	return max(0, min(100, v))
}
