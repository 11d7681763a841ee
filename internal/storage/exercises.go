package storage

import (
	"context"
	"fmt"

	"github.com/claude/repcoach/internal/models"
	"github.com/google/uuid"
)

// SaveExercise inserts or updates a catalog exercise. A new exercise
// without an id gets one.
func (db *DB) SaveExercise(ctx context.Context, e *models.Exercise) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO exercises (id, title, body_part, equipment, type, level)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			body_part = EXCLUDED.body_part,
			equipment = EXCLUDED.equipment,
			type = EXCLUDED.type,
			level = EXCLUDED.level`,
		e.ID, e.Title, e.BodyPart, e.Equipment, e.Type, e.Level)
	if err != nil {
		return fmt.Errorf("saving exercise: %w", err)
	}
	return nil
}

// ExerciseByID returns a catalog exercise.
func (db *DB) ExerciseByID(ctx context.Context, id uuid.UUID) (models.Exercise, error) {
	var e models.Exercise
	err := db.Pool.QueryRow(ctx,
		`SELECT id, title, body_part, equipment, type, level FROM exercises WHERE id = $1`, id).
		Scan(&e.ID, &e.Title, &e.BodyPart, &e.Equipment, &e.Type, &e.Level)
	if err != nil {
		return e, notFound(err, "exercise")
	}
	return e, nil
}

// ExerciseByTitle returns a catalog exercise by case-insensitive title.
func (db *DB) ExerciseByTitle(ctx context.Context, title string) (models.Exercise, error) {
	var e models.Exercise
	err := db.Pool.QueryRow(ctx,
		`SELECT id, title, body_part, equipment, type, level FROM exercises WHERE LOWER(title) = LOWER($1)`, title).
		Scan(&e.ID, &e.Title, &e.BodyPart, &e.Equipment, &e.Type, &e.Level)
	if err != nil {
		return e, notFound(err, "exercise")
	}
	return e, nil
}

// FetchExercises returns the catalog, optionally filtered by body part.
func (db *DB) FetchExercises(ctx context.Context, bodyPart string) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, title, body_part, equipment, type, level FROM exercises
		 WHERE $1 = '' OR body_part = $1
		 ORDER BY title`, bodyPart)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.Title, &e.BodyPart, &e.Equipment, &e.Type, &e.Level); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
