package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the persisted lifecycle of a session.
//
//	scheduled -> in_progress -> completed | cancelled
type SessionStatus string

const (
	StatusScheduled  SessionStatus = "scheduled"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusCancelled  SessionStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValid reports whether s is a known status.
func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Defaults used by the derived session metrics.
const (
	defaultSessionRPE     = 5
	defaultActualRestSecs = 90
	intensityVolumeCap    = 10000.0
	intensityDurationCap  = 7200.0
)

// Session is one scheduled or performed workout for a client.
// TotalVolume, TotalSets and TotalReps are cached; call Recompute after
// mutating any CompletedSet.
type Session struct {
	ID          uuid.UUID     `json:"id"`
	ClientID    uuid.UUID     `json:"client_id"`
	WorkoutID   uuid.UUID     `json:"workout_id"`
	WorkoutName string        `json:"workout_name"`
	Date        time.Time     `json:"date"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	DurationSec float64       `json:"duration_sec"`
	Status      SessionStatus `json:"status"`
	Location    string        `json:"location,omitempty"`
	Notes       string        `json:"notes,omitempty"`

	PlannedExercises   int                 `json:"planned_exercises"`
	CompletedExercises []CompletedExercise `json:"completed_exercises"`

	TotalVolume float64 `json:"total_volume"`
	TotalSets   int     `json:"total_sets"`
	TotalReps   int     `json:"total_reps"`

	SessionRPE       *int `json:"session_rpe,omitempty"`
	TechniqueQuality *int `json:"technique_quality,omitempty"`
}

// CompletedExercise is the performed counterpart of a WorkoutExercise.
type CompletedExercise struct {
	ID           uuid.UUID      `json:"id"`
	Exercise     Exercise       `json:"exercise"`
	SupersetID   *uuid.UUID     `json:"superset_id,omitempty"`
	Sets         []CompletedSet `json:"sets"`
	WasCompleted bool           `json:"was_completed"`
	Notes        string         `json:"notes,omitempty"`
}

// CompletedSet records target and actual performance for one set.
// Target fields are captured from the template and never change.
type CompletedSet struct {
	SetNumber      int        `json:"set_number"`
	TargetReps     int        `json:"target_reps"`
	TargetWeight   float64    `json:"target_weight"`
	TargetUnit     WeightUnit `json:"target_unit"`
	TargetRestSecs int        `json:"target_rest_secs"`
	Reps           int        `json:"reps"`
	Weight         float64    `json:"weight"`
	Unit           WeightUnit `json:"unit"`
	RPE            *int       `json:"rpe,omitempty"`
	ActualRestSecs *int       `json:"actual_rest_secs,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// NewCompletedSet seeds a set from its plan; actual values start at target.
func NewCompletedSet(p PlannedSet) CompletedSet {
	unit := p.Unit
	if unit == "" {
		unit = UnitLbs
	}
	rest := p.RestSeconds
	if rest <= 0 {
		rest = DefaultRestSeconds
	}
	reps := max(p.Reps, 0)
	weight := max(p.Weight, 0)
	return CompletedSet{
		SetNumber:      p.SetNumber,
		TargetReps:     reps,
		TargetWeight:   weight,
		TargetUnit:     unit,
		TargetRestSecs: rest,
		Reps:           reps,
		Weight:         weight,
		Unit:           unit,
	}
}

// SetActual overwrites the actual values. Negative reps or weight are
// clamped to zero and an RPE outside 1-10 is treated as unset.
func (s *CompletedSet) SetActual(reps int, weight float64, rpe *int) {
	s.Reps = max(reps, 0)
	s.Weight = max(weight, 0)
	s.RPE = nil
	if rpe != nil && *rpe >= 1 && *rpe <= 10 {
		v := *rpe
		s.RPE = &v
	}
}

// Volume is actual weight × actual reps.
func (s CompletedSet) Volume() float64 {
	return s.Weight * float64(s.Reps)
}

// Volume sums set volume for the exercise.
func (e CompletedExercise) Volume() float64 {
	var v float64
	for _, s := range e.Sets {
		v += s.Volume()
	}
	return v
}

// AverageRPE is the mean of recorded set RPEs, 0 when none were recorded.
func (e CompletedExercise) AverageRPE() float64 {
	var sum, n int
	for _, s := range e.Sets {
		if s.RPE != nil {
			sum += *s.RPE
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// SameSuperset reports whether both exercises belong to the same non-nil group.
func SameSuperset(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}

// Recompute refreshes the cached aggregates from the completed exercises.
func (s *Session) Recompute() {
	var volume float64
	var sets, reps int
	for _, ex := range s.CompletedExercises {
		for _, set := range ex.Sets {
			volume += set.Volume()
			reps += set.Reps
			sets++
		}
	}
	s.TotalVolume = volume
	s.TotalSets = sets
	s.TotalReps = reps
}

// CompletionRate is the percentage of planned exercises marked completed.
func (s *Session) CompletionRate() float64 {
	planned := s.PlannedExercises
	if planned <= 0 {
		planned = len(s.CompletedExercises)
	}
	if planned == 0 {
		return 0
	}
	done := 0
	for _, ex := range s.CompletedExercises {
		if ex.WasCompleted {
			done++
		}
	}
	return float64(done) / float64(planned) * 100
}

// IntensityScore blends session RPE, volume and duration into 0-100.
func (s *Session) IntensityScore() float64 {
	rpe := defaultSessionRPE
	if s.SessionRPE != nil {
		rpe = *s.SessionRPE
	}
	rpeComponent := float64(rpe) / 10
	volumeComponent := min(s.TotalVolume/intensityVolumeCap, 1)
	durationComponent := min(s.DurationSec/intensityDurationCap, 1)
	return (rpeComponent*0.4 + volumeComponent*0.4 + durationComponent*0.2) * 100
}

// AverageRestTime is the mean actual rest in seconds. Sets without a
// recorded rest count as 90 seconds.
func (s *Session) AverageRestTime() float64 {
	var total float64
	n := 0
	for _, ex := range s.CompletedExercises {
		for _, set := range ex.Sets {
			if set.ActualRestSecs != nil {
				total += float64(*set.ActualRestSecs)
			} else {
				total += defaultActualRestSecs
			}
			n++
		}
	}
	if n == 0 {
		return defaultActualRestSecs
	}
	return total / float64(n)
}

// Summary is the read model returned to callers after a session changes.
type Summary struct {
	TotalVolume     float64 `json:"total_volume"`
	TotalSets       int     `json:"total_sets"`
	TotalReps       int     `json:"total_reps"`
	CompletionRate  float64 `json:"completion_rate"`
	IntensityScore  float64 `json:"intensity_score"`
	AverageRestTime float64 `json:"average_rest_time"`
}

// Summarize returns the session's aggregates and derived metrics.
func (s *Session) Summarize() Summary {
	return Summary{
		TotalVolume:     s.TotalVolume,
		TotalSets:       s.TotalSets,
		TotalReps:       s.TotalReps,
		CompletionRate:  s.CompletionRate(),
		IntensityScore:  s.IntensityScore(),
		AverageRestTime: s.AverageRestTime(),
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	out := *s
	out.StartTime = cloneTime(s.StartTime)
	out.EndTime = cloneTime(s.EndTime)
	out.SessionRPE = cloneInt(s.SessionRPE)
	out.TechniqueQuality = cloneInt(s.TechniqueQuality)
	if s.CompletedExercises != nil {
		out.CompletedExercises = make([]CompletedExercise, len(s.CompletedExercises))
		for i, ex := range s.CompletedExercises {
			c := ex
			if ex.SupersetID != nil {
				id := *ex.SupersetID
				c.SupersetID = &id
			}
			if ex.Sets != nil {
				c.Sets = make([]CompletedSet, len(ex.Sets))
				for j, set := range ex.Sets {
					set.RPE = cloneInt(set.RPE)
					set.ActualRestSecs = cloneInt(set.ActualRestSecs)
					set.CompletedAt = cloneTime(set.CompletedAt)
					c.Sets[j] = set
				}
			}
			out.CompletedExercises[i] = c
		}
	}
	return &out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
