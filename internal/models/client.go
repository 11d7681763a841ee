package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender is the client's reported gender. It selects reference values
// (ideal body fat, ideal muscle-mass ratio) in scoring.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// IsValid reports whether g is one of the known genders.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// Client is a trainee tracked by a trainer.
// Body-composition fields are optional; nil means "not measured".
type Client struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Gender    Gender    `json:"gender"`
	BirthDate time.Time `json:"birth_date"`

	HeightCm        float64 `json:"height_cm"`
	CurrentWeightKg float64 `json:"current_weight_kg"`
	TargetWeightKg  float64 `json:"target_weight_kg"`

	BodyFatPct       *float64 `json:"body_fat_pct,omitempty"`
	MuscleMassKg     *float64 `json:"muscle_mass_kg,omitempty"`
	WaterPct         *float64 `json:"water_pct,omitempty"`
	BoneMassKg       *float64 `json:"bone_mass_kg,omitempty"`
	VisceralFatLevel *int     `json:"visceral_fat_level,omitempty"`

	Sessions      []Session      `json:"sessions,omitempty"`
	FitScore      *FitScore      `json:"fit_score,omitempty"`
	NutritionLogs []NutritionLog `json:"nutrition_logs,omitempty"`
	LifestyleLogs []LifestyleLog `json:"lifestyle_logs,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewClient creates a client with a fresh default FitScore attached.
func NewClient(firstName, lastName string, gender Gender, birthDate time.Time, heightCm, weightKg, targetKg float64) *Client {
	fs := NewFitScore()
	return &Client{
		ID:              uuid.New(),
		FirstName:       firstName,
		LastName:        lastName,
		Gender:          gender,
		BirthDate:       birthDate,
		HeightCm:        heightCm,
		CurrentWeightKg: weightKg,
		TargetWeightKg:  targetKg,
		FitScore:        &fs,
		CreatedAt:       time.Now().UTC(),
	}
}

// FullName returns "First Last".
func (c *Client) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// BMI returns weight / height² in kg/m², or 0 when either is unknown.
func (c *Client) BMI() float64 {
	if c.HeightCm <= 0 || c.CurrentWeightKg <= 0 {
		return 0
	}
	m := c.HeightCm / 100
	return c.CurrentWeightKg / (m * m)
}

// Age returns whole years between the birth date and now.
func (c *Client) Age(now time.Time) int {
	if c.BirthDate.IsZero() || now.Before(c.BirthDate) {
		return 0
	}
	b := c.BirthDate
	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	return years
}

// Measurements is the editable body-composition subset of a Client.
type Measurements struct {
	HeightCm         *float64 `json:"height_cm,omitempty"`
	CurrentWeightKg  *float64 `json:"current_weight_kg,omitempty"`
	TargetWeightKg   *float64 `json:"target_weight_kg,omitempty"`
	BodyFatPct       *float64 `json:"body_fat_pct,omitempty"`
	MuscleMassKg     *float64 `json:"muscle_mass_kg,omitempty"`
	WaterPct         *float64 `json:"water_pct,omitempty"`
	BoneMassKg       *float64 `json:"bone_mass_kg,omitempty"`
	VisceralFatLevel *int     `json:"visceral_fat_level,omitempty"`
}

// Apply copies the non-nil fields of m onto the client.
func (m Measurements) Apply(c *Client) {
	if m.HeightCm != nil {
		c.HeightCm = *m.HeightCm
	}
	if m.CurrentWeightKg != nil {
		c.CurrentWeightKg = *m.CurrentWeightKg
	}
	if m.TargetWeightKg != nil {
		c.TargetWeightKg = *m.TargetWeightKg
	}
	if m.BodyFatPct != nil {
		c.BodyFatPct = m.BodyFatPct
	}
	if m.MuscleMassKg != nil {
		c.MuscleMassKg = m.MuscleMassKg
	}
	if m.WaterPct != nil {
		c.WaterPct = m.WaterPct
	}
	if m.BoneMassKg != nil {
		c.BoneMassKg = m.BoneMassKg
	}
	if m.VisceralFatLevel != nil {
		c.VisceralFatLevel = m.VisceralFatLevel
	}
}
