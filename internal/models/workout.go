package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// WeightUnit is the unit a set's load is expressed in.
type WeightUnit string

const (
	UnitLbs        WeightUnit = "lbs"
	UnitKg         WeightUnit = "kg"
	UnitBodyweight WeightUnit = "BW"
)

// DefaultRestSeconds is the rest prescribed for a planned set when none is given.
const DefaultRestSeconds = 90

// Exercise is a catalog entry. Only ID and Title are relied on by the engines.
type Exercise struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	BodyPart  string    `json:"body_part"`
	Equipment string    `json:"equipment"`
	Type      string    `json:"type"`
	Level     string    `json:"level"`
}

// PlannedSet is one prescribed set inside a workout template.
type PlannedSet struct {
	SetNumber   int        `json:"set_number"`
	Reps        int        `json:"reps"`
	Weight      float64    `json:"weight"`
	Unit        WeightUnit `json:"unit"`
	RestSeconds int        `json:"rest_seconds"`
	TargetRPE   *int       `json:"target_rpe,omitempty"`
}

// WorkoutExercise places an exercise in a template with its planned sets.
// Exercises sharing a non-nil SupersetID are performed back to back.
type WorkoutExercise struct {
	ID         uuid.UUID    `json:"id"`
	Exercise   Exercise     `json:"exercise"`
	Sets       []PlannedSet `json:"sets"`
	SupersetID *uuid.UUID   `json:"superset_id,omitempty"`
	OrderIndex int          `json:"order_index"`
	Notes      string       `json:"notes,omitempty"`
}

// Workout is a reusable template. Once a scheduled Session references it,
// it must not be edited; changes go into a new template.
type Workout struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category,omitempty"`
	Exercises   []WorkoutExercise `json:"exercises"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Sorted returns the template exercises ordered by OrderIndex.
// Ties keep their slice order.
func (w *Workout) Sorted() []WorkoutExercise {
	out := make([]WorkoutExercise, len(w.Exercises))
	copy(out, w.Exercises)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// TotalSets counts planned sets across all exercises.
func (w *Workout) TotalSets() int {
	n := 0
	for _, ex := range w.Exercises {
		n += len(ex.Sets)
	}
	return n
}

// HasSuperset reports whether any exercise belongs to a superset group.
func (w *Workout) HasSuperset() bool {
	for _, ex := range w.Exercises {
		if ex.SupersetID != nil {
			return true
		}
	}
	return false
}

// EstimatedVolume sums planned weight × reps.
func (w *Workout) EstimatedVolume() float64 {
	var v float64
	for _, ex := range w.Exercises {
		for _, s := range ex.Sets {
			v += s.Weight * float64(s.Reps)
		}
	}
	return v
}
