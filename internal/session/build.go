package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/google/uuid"
)

// NewSession builds a scheduled session for client from workout. Each
// template exercise becomes one CompletedExercise in template order, with
// every set's actual values seeded from its plan.
func NewSession(client *models.Client, workout *models.Workout, date time.Time) (*models.Session, error) {
	if client == nil {
		return nil, &ValidationError{Field: "client", Reason: "required"}
	}
	if workout == nil {
		return nil, &ValidationError{Field: "workout", Reason: "required"}
	}

	exercises := workout.Sorted()
	s := &models.Session{
		ID:                 uuid.New(),
		ClientID:           client.ID,
		WorkoutID:          workout.ID,
		WorkoutName:        workout.Name,
		Date:               date,
		Status:             models.StatusScheduled,
		PlannedExercises:   len(exercises),
		CompletedExercises: make([]models.CompletedExercise, 0, len(exercises)),
	}
	for _, we := range exercises {
		ce := models.CompletedExercise{
			ID:       uuid.New(),
			Exercise: we.Exercise,
			Sets:     make([]models.CompletedSet, 0, len(we.Sets)),
		}
		if we.SupersetID != nil {
			id := *we.SupersetID
			ce.SupersetID = &id
		}
		for _, ps := range we.Sets {
			ce.Sets = append(ce.Sets, models.NewCompletedSet(ps))
		}
		s.CompletedExercises = append(s.CompletedExercises, ce)
	}
	s.Recompute()
	return s, nil
}

// ResolveExercises fills each template exercise from the catalog, by ID
// when set and by title otherwise.
func ResolveExercises(ctx context.Context, cat Catalog, w *models.Workout) error {
	if w == nil {
		return &ValidationError{Field: "workout", Reason: "required"}
	}
	for i := range w.Exercises {
		ref := w.Exercises[i].Exercise
		var (
			ex  models.Exercise
			err error
		)
		switch {
		case ref.ID != uuid.Nil:
			ex, err = cat.ExerciseByID(ctx, ref.ID)
		case strings.TrimSpace(ref.Title) != "":
			ex, err = cat.ExerciseByTitle(ctx, strings.TrimSpace(ref.Title))
		default:
			return &ValidationError{Field: fmt.Sprintf("exercises[%d]", i), Reason: "id or title required"}
		}
		if err != nil {
			return fmt.Errorf("resolving exercise %d: %w", i, err)
		}
		w.Exercises[i].Exercise = ex
	}
	return nil
}
