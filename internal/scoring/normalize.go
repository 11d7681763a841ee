package scoring

import "github.com/claude/repcoach/internal/models"

const (
	idealBodyFatFemale = 25.0
	idealBodyFatOther  = 15.0
	idealBMI           = 22.5

	idealMuscleRatioMale  = 0.45
	idealMuscleRatioOther = 0.36
)

// measurements is a client's body data with every optional field resolved.
// Formula code reads the has* flags instead of checking pointers.
type measurements struct {
	hasBodyFat   bool
	bodyFat      float64
	idealBodyFat float64

	hasBMI bool
	bmi    float64

	hasMuscleRatio   bool
	muscleRatio      float64
	idealMuscleRatio float64
}

func normalize(c *models.Client) measurements {
	var m measurements
	if c == nil {
		return m
	}

	m.idealBodyFat = idealBodyFatOther
	if c.Gender == models.GenderFemale {
		m.idealBodyFat = idealBodyFatFemale
	}
	m.idealMuscleRatio = idealMuscleRatioOther
	if c.Gender == models.GenderMale {
		m.idealMuscleRatio = idealMuscleRatioMale
	}

	if c.BodyFatPct != nil && *c.BodyFatPct >= 0 {
		m.hasBodyFat = true
		m.bodyFat = *c.BodyFatPct
	}
	if bmi := c.BMI(); bmi > 0 {
		m.hasBMI = true
		m.bmi = bmi
	}
	if c.MuscleMassKg != nil && *c.MuscleMassKg >= 0 && c.CurrentWeightKg > 0 {
		m.hasMuscleRatio = true
		m.muscleRatio = *c.MuscleMassKg / c.CurrentWeightKg
	}
	return m
}
