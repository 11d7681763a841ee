package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveWorkout inserts or replaces a workout template with its exercises
// and planned sets. Exercises must already exist in the catalog.
func (db *DB) SaveWorkout(ctx context.Context, w *models.Workout) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	for i := range w.Exercises {
		if w.Exercises[i].ID == uuid.Nil {
			w.Exercises[i].ID = uuid.New()
		}
	}

	return db.inTx(ctx, func(tx pgx.Tx) error {
		if err := checkNotScheduled(ctx, tx, w.ID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO workouts (id, name, description, category, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				category = EXCLUDED.category`,
			w.ID, w.Name, w.Description, w.Category, w.CreatedAt)
		if err != nil {
			return fmt.Errorf("saving workout: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM workout_exercises WHERE workout_id = $1`, w.ID); err != nil {
			return fmt.Errorf("clearing workout exercises: %w", err)
		}
		if err := insertWorkoutExercises(ctx, tx, w); err != nil {
			return err
		}
		return insertPlannedSets(ctx, tx, w.Exercises)
	})
}

func insertWorkoutExercises(ctx context.Context, tx pgx.Tx, w *models.Workout) error {
	if len(w.Exercises) == 0 {
		return nil
	}
	args := make([]any, 0, len(w.Exercises)*6)
	for _, we := range w.Exercises {
		args = append(args, we.ID, w.ID, we.Exercise.ID, we.SupersetID, we.OrderIndex, we.Notes)
	}
	query := `INSERT INTO workout_exercises (id, workout_id, exercise_id, superset_id, order_index, notes) VALUES ` +
		placeholders(len(w.Exercises), 6)
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting workout exercises: %w", err)
	}
	return nil
}

func insertPlannedSets(ctx context.Context, tx pgx.Tx, exercises []models.WorkoutExercise) error {
	var args []any
	n := 0
	for _, we := range exercises {
		for _, s := range we.Sets {
			unit := s.Unit
			if unit == "" {
				unit = models.UnitLbs
			}
			rest := s.RestSeconds
			if rest <= 0 {
				rest = models.DefaultRestSeconds
			}
			args = append(args, we.ID, s.SetNumber, s.Reps, s.Weight, string(unit), rest, s.TargetRPE)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	query := `INSERT INTO planned_sets (workout_exercise_id, set_number, reps, weight, unit, rest_seconds, target_rpe) VALUES ` +
		placeholders(n, 7) + " ON CONFLICT DO NOTHING"
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting planned sets: %w", err)
	}
	return nil
}

// checkNotScheduled fails with ErrInUse when a scheduled session refers
// to the workout.
func checkNotScheduled(ctx context.Context, tx pgx.Tx, workoutID uuid.UUID) error {
	var n int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions WHERE workout_id = $1 AND status = $2`,
		workoutID, string(models.StatusScheduled)).Scan(&n)
	if err != nil {
		return fmt.Errorf("checking workout references: %w", err)
	}
	if n > 0 {
		return ErrInUse
	}
	return nil
}

// FetchWorkouts returns all templates with their exercises, newest first.
func (db *DB) FetchWorkouts(ctx context.Context) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, description, category, created_at FROM workouts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	var result []models.Workout
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.Category, &w.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		if result[i].Exercises, err = db.fetchWorkoutExercises(ctx, result[i].ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// FetchWorkout returns one template with its exercises in order.
func (db *DB) FetchWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error) {
	var w models.Workout
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, description, category, created_at FROM workouts WHERE id = $1`, id).
		Scan(&w.ID, &w.Name, &w.Description, &w.Category, &w.CreatedAt)
	if err != nil {
		return nil, notFound(err, "workout")
	}
	if w.Exercises, err = db.fetchWorkoutExercises(ctx, id); err != nil {
		return nil, err
	}
	return &w, nil
}

func (db *DB) fetchWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT we.id, we.superset_id, we.order_index, we.notes,
		 e.id, e.title, e.body_part, e.equipment, e.type, e.level
		 FROM workout_exercises we
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE we.workout_id = $1
		 ORDER BY we.order_index ASC`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	var exercises []models.WorkoutExercise
	for rows.Next() {
		var we models.WorkoutExercise
		e := &we.Exercise
		if err := rows.Scan(&we.ID, &we.SupersetID, &we.OrderIndex, &we.Notes,
			&e.ID, &e.Title, &e.BodyPart, &e.Equipment, &e.Type, &e.Level); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		exercises = append(exercises, we)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT ps.workout_exercise_id, ps.set_number, ps.reps, ps.weight, ps.unit, ps.rest_seconds, ps.target_rpe
		 FROM planned_sets ps
		 JOIN workout_exercises we ON we.id = ps.workout_exercise_id
		 WHERE we.workout_id = $1
		 ORDER BY ps.set_number ASC`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying planned sets: %w", err)
	}
	defer setRows.Close()

	sets := make(map[uuid.UUID][]models.PlannedSet)
	for setRows.Next() {
		var (
			owner uuid.UUID
			s     models.PlannedSet
			unit  string
		)
		if err := setRows.Scan(&owner, &s.SetNumber, &s.Reps, &s.Weight, &unit, &s.RestSeconds, &s.TargetRPE); err != nil {
			return nil, fmt.Errorf("scanning planned set: %w", err)
		}
		s.Unit = models.WeightUnit(unit)
		sets[owner] = append(sets[owner], s)
	}
	if err := setRows.Err(); err != nil {
		return nil, err
	}
	for i := range exercises {
		exercises[i].Sets = sets[exercises[i].ID]
	}
	return exercises, nil
}

// DeleteWorkout removes a template. Past sessions keep their copy of it.
func (db *DB) DeleteWorkout(ctx context.Context, id uuid.UUID) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if err := checkNotScheduled(ctx, tx, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM workouts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting workout: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("workout: %w", ErrNotFound)
		}
		return nil
	})
}
