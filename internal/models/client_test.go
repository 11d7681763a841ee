package models

import (
	"math"
	"testing"
	"time"
)

// TestNewClient_DefaultFitScore verifies onboarding attaches the default score.
func TestNewClient_DefaultFitScore(t *testing.T) {
	c := NewClient("Ana", "Silva", GenderFemale, time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC), 165, 60, 58)
	if c.FitScore == nil {
		t.Fatal("FitScore is nil")
	}
	if c.FitScore.Overall != 500 {
		t.Errorf("Overall = %v, want 500", c.FitScore.Overall)
	}
	for name, v := range c.FitScore.Components() {
		if v != 50 {
			t.Errorf("%s = %v, want 50", name, v)
		}
	}
	if c.FitScore.WeeklyTrend != TrendMaintaining || c.FitScore.QuarterlyTrend != TrendMaintaining {
		t.Error("trends should default to maintaining")
	}
}

// TestBMI verifies the formula and the zero guard for missing inputs.
func TestBMI(t *testing.T) {
	c := &Client{HeightCm: 180, CurrentWeightKg: 81}
	if got := c.BMI(); math.Abs(got-25) > 1e-9 {
		t.Errorf("BMI = %v, want 25", got)
	}
	if got := (&Client{HeightCm: 0, CurrentWeightKg: 80}).BMI(); got != 0 {
		t.Errorf("BMI with no height = %v, want 0", got)
	}
	if got := (&Client{HeightCm: 180}).BMI(); got != 0 {
		t.Errorf("BMI with no weight = %v, want 0", got)
	}
}

// TestAge verifies birthdays not yet reached this year are not counted,
// including across leap years.
func TestAge(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  int
	}{
		{"day before birthday in leap year", day(1990, 6, 15), day(2020, 6, 14), 29},
		{"birthday in leap year", day(1990, 6, 15), day(2020, 6, 15), 30},
		{"day after birthday", day(1990, 6, 15), day(2020, 6, 16), 30},
		{"day before birthday", day(1990, 6, 15), day(2021, 6, 14), 30},
		{"born in leap year", day(1992, 3, 1), day(2021, 2, 28), 28},
		{"leap day birthday in common year", day(1992, 2, 29), day(2021, 2, 28), 28},
		{"leap day birthday reached", day(1992, 2, 29), day(2021, 3, 1), 29},
		{"not born yet", day(2030, 1, 1), day(2020, 6, 14), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{BirthDate: tt.birth}
			if got := c.Age(tt.now); got != tt.want {
				t.Errorf("Age = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestMeasurementsApply verifies only provided fields are overwritten.
func TestMeasurementsApply(t *testing.T) {
	bf := 18.5
	c := &Client{HeightCm: 175, CurrentWeightKg: 80}
	w := 78.0
	Measurements{CurrentWeightKg: &w, BodyFatPct: &bf}.Apply(c)
	if c.CurrentWeightKg != 78 || c.HeightCm != 175 {
		t.Errorf("got height %v weight %v", c.HeightCm, c.CurrentWeightKg)
	}
	if c.BodyFatPct == nil || *c.BodyFatPct != 18.5 {
		t.Errorf("BodyFatPct = %v", c.BodyFatPct)
	}
	if c.MuscleMassKg != nil {
		t.Error("MuscleMassKg should stay nil")
	}
}

// TestRecoveryScore verifies the lifestyle blend and the sleep cap.
func TestRecoveryScore(t *testing.T) {
	l := LifestyleLog{SleepHours: 8, SleepQuality: 9, StressLevel: 4, Hydration: 6}
	// (9 + 6 + 6) / 3 * 10
	if got := l.RecoveryScore(); math.Abs(got-70) > 1e-9 {
		t.Errorf("RecoveryScore = %v, want 70", got)
	}
	l.SleepHours = 12
	if got := l.RecoveryScore(); math.Abs(got-70) > 1e-9 {
		t.Errorf("RecoveryScore with long sleep = %v, want 70", got)
	}
	l.SleepHours = 4
	// (4.5 + 6 + 6) / 3 * 10
	if got := l.RecoveryScore(); math.Abs(got-55) > 1e-9 {
		t.Errorf("RecoveryScore with short sleep = %v, want 55", got)
	}
}

// TestWorkoutSorted verifies ordering by index with stable ties.
func TestWorkoutSorted(t *testing.T) {
	w := &Workout{Exercises: []WorkoutExercise{
		{OrderIndex: 2, Exercise: Exercise{Title: "c"}},
		{OrderIndex: 0, Exercise: Exercise{Title: "a"}},
		{OrderIndex: 1, Exercise: Exercise{Title: "b1"}},
		{OrderIndex: 1, Exercise: Exercise{Title: "b2"}},
	}}
	got := w.Sorted()
	want := []string{"a", "b1", "b2", "c"}
	for i, ex := range got {
		if ex.Exercise.Title != want[i] {
			t.Errorf("Sorted()[%d] = %q, want %q", i, ex.Exercise.Title, want[i])
		}
	}
	if w.Exercises[0].Exercise.Title != "c" {
		t.Error("Sorted must not reorder the template in place")
	}
}
