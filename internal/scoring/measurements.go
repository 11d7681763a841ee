package scoring

import (
	"math"

	"github.com/claude/repcoach/internal/models"
)

const (
	bodyFatPenalty     = 3.0
	bmiPenalty         = 5.0
	muscleRatioPenalty = 200.0
)

// ScoreFromMeasurements updates body composition and muscle balance from
// the client's measurements, then recomputes the overall score. Terms with
// no data are skipped; with none at all the previous values are kept.
func ScoreFromMeasurements(fs *models.FitScore, c *models.Client) {
	m := normalize(c)

	var terms []float64
	if m.hasBodyFat {
		terms = append(terms, clampComponent(100-bodyFatPenalty*math.Abs(m.bodyFat-m.idealBodyFat)))
	}
	if m.hasBMI {
		terms = append(terms, clampComponent(100-bmiPenalty*math.Abs(m.bmi-idealBMI)))
	}
	if len(terms) > 0 {
		fs.BodyComposition = mean(terms...)
	}

	if m.hasMuscleRatio {
		fs.MuscleBalance = clampComponent(100 - muscleRatioPenalty*math.Abs(m.muscleRatio-m.idealMuscleRatio))
	}

	ComputeOverallScore(fs)
}
