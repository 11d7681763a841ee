package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/claude/repcoach/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, client_id, workout_id, workout_name, date, start_time, end_time,
	duration_sec, status, location, notes, planned_exercises,
	total_volume, total_sets, total_reps, session_rpe, technique_quality`

// SaveSession inserts or replaces a session with its performed exercises
// and sets.
func (db *DB) SaveSession(ctx context.Context, s *models.Session) error {
	var workoutID *uuid.UUID
	if s.WorkoutID != uuid.Nil {
		workoutID = &s.WorkoutID
	}
	return db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO sessions (`+sessionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			ON CONFLICT (id) DO UPDATE SET
				workout_name = EXCLUDED.workout_name,
				date = EXCLUDED.date,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				duration_sec = EXCLUDED.duration_sec,
				status = EXCLUDED.status,
				location = EXCLUDED.location,
				notes = EXCLUDED.notes,
				planned_exercises = EXCLUDED.planned_exercises,
				total_volume = EXCLUDED.total_volume,
				total_sets = EXCLUDED.total_sets,
				total_reps = EXCLUDED.total_reps,
				session_rpe = EXCLUDED.session_rpe,
				technique_quality = EXCLUDED.technique_quality`,
			s.ID, s.ClientID, workoutID, s.WorkoutName, s.Date, s.StartTime, s.EndTime,
			s.DurationSec, string(s.Status), s.Location, s.Notes, s.PlannedExercises,
			s.TotalVolume, s.TotalSets, s.TotalReps, s.SessionRPE, s.TechniqueQuality)
		if err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM session_exercises WHERE session_id = $1`, s.ID); err != nil {
			return fmt.Errorf("clearing session exercises: %w", err)
		}
		if err := insertSessionExercises(ctx, tx, s); err != nil {
			return err
		}
		return insertSessionSets(ctx, tx, s.CompletedExercises)
	})
}

func insertSessionExercises(ctx context.Context, tx pgx.Tx, s *models.Session) error {
	if len(s.CompletedExercises) == 0 {
		return nil
	}
	args := make([]any, 0, len(s.CompletedExercises)*10)
	for i := range s.CompletedExercises {
		ce := &s.CompletedExercises[i]
		if ce.ID == uuid.Nil {
			ce.ID = uuid.New()
		}
		args = append(args, ce.ID, s.ID, i, ce.Exercise.ID, ce.Exercise.Title,
			ce.Exercise.BodyPart, ce.Exercise.Equipment, ce.SupersetID, ce.WasCompleted, ce.Notes)
	}
	query := `INSERT INTO session_exercises (id, session_id, position, exercise_id, title,
		body_part, equipment, superset_id, was_completed, notes) VALUES ` +
		placeholders(len(s.CompletedExercises), 10)
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting session exercises: %w", err)
	}
	return nil
}

func insertSessionSets(ctx context.Context, tx pgx.Tx, exercises []models.CompletedExercise) error {
	var args []any
	n := 0
	for _, ce := range exercises {
		for _, set := range ce.Sets {
			args = append(args, ce.ID, set.SetNumber,
				set.TargetReps, set.TargetWeight, string(set.TargetUnit), set.TargetRestSecs,
				set.Reps, set.Weight, string(set.Unit), set.RPE, set.ActualRestSecs, set.CompletedAt)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	query := `INSERT INTO session_sets (session_exercise_id, set_number,
		target_reps, target_weight, target_unit, target_rest_secs,
		reps, weight, unit, rpe, actual_rest_secs, completed_at) VALUES ` +
		placeholders(n, 12) + " ON CONFLICT DO NOTHING"
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting session sets: %w", err)
	}
	return nil
}

// FetchSession returns one session with its exercises and sets.
func (db *DB) FetchSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, err := scanSession(db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "session")
	}
	sessions := []models.Session{s}
	if err := db.loadSessionDetails(ctx, sessions, "se.session_id = $1", id); err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

// FetchSessionsFor returns every session of a client, oldest first.
func (db *DB) FetchSessionsFor(ctx context.Context, clientID uuid.UUID) ([]models.Session, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE client_id = $1 ORDER BY date ASC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	var sessions []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	if err := db.loadSessionDetails(ctx, sessions,
		"se.session_id IN (SELECT id FROM sessions WHERE client_id = $1)", clientID); err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes a session and its sets.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session: %w", ErrNotFound)
	}
	return nil
}

// sessionExerciseRow is a session_exercises row with its owning session.
type sessionExerciseRow struct {
	SessionID uuid.UUID
	Position  int
	Exercise  models.CompletedExercise
}

// sessionSetRow is a session_sets row with its owning exercise.
type sessionSetRow struct {
	ExerciseID uuid.UUID
	Set        models.CompletedSet
}

// loadSessionDetails fills CompletedExercises for sessions from rows
// matching where, which is bound to arg.
func (db *DB) loadSessionDetails(ctx context.Context, sessions []models.Session, where string, arg any) error {
	rows, err := db.Pool.Query(ctx,
		`SELECT se.session_id, se.position, se.id, se.exercise_id, se.title, se.body_part, se.equipment,
		 se.superset_id, se.was_completed, se.notes
		 FROM session_exercises se
		 WHERE `+where+`
		 ORDER BY se.session_id, se.position ASC`, arg)
	if err != nil {
		return fmt.Errorf("querying session exercises: %w", err)
	}
	var exercises []sessionExerciseRow
	for rows.Next() {
		var r sessionExerciseRow
		ce := &r.Exercise
		if err := rows.Scan(&r.SessionID, &r.Position, &ce.ID, &ce.Exercise.ID, &ce.Exercise.Title,
			&ce.Exercise.BodyPart, &ce.Exercise.Equipment, &ce.SupersetID, &ce.WasCompleted, &ce.Notes); err != nil {
			rows.Close()
			return fmt.Errorf("scanning session exercise: %w", err)
		}
		exercises = append(exercises, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT ss.session_exercise_id, ss.set_number,
		 ss.target_reps, ss.target_weight, ss.target_unit, ss.target_rest_secs,
		 ss.reps, ss.weight, ss.unit, ss.rpe, ss.actual_rest_secs, ss.completed_at
		 FROM session_sets ss
		 JOIN session_exercises se ON se.id = ss.session_exercise_id
		 WHERE `+where+`
		 ORDER BY ss.session_exercise_id, ss.set_number ASC`, arg)
	if err != nil {
		return fmt.Errorf("querying session sets: %w", err)
	}
	defer setRows.Close()

	var sets []sessionSetRow
	for setRows.Next() {
		var (
			r                sessionSetRow
			targetUnit, unit string
		)
		s := &r.Set
		if err := setRows.Scan(&r.ExerciseID, &s.SetNumber,
			&s.TargetReps, &s.TargetWeight, &targetUnit, &s.TargetRestSecs,
			&s.Reps, &s.Weight, &unit, &s.RPE, &s.ActualRestSecs, &s.CompletedAt); err != nil {
			return fmt.Errorf("scanning session set: %w", err)
		}
		s.TargetUnit = models.WeightUnit(targetUnit)
		s.Unit = models.WeightUnit(unit)
		sets = append(sets, r)
	}
	if err := setRows.Err(); err != nil {
		return err
	}

	assembleSessions(sessions, exercises, sets)
	return nil
}

// assembleSessions attaches exercises to their sessions in position order
// and sets to their exercises in set-number order.
func assembleSessions(sessions []models.Session, exercises []sessionExerciseRow, sets []sessionSetRow) {
	bySet := make(map[uuid.UUID][]models.CompletedSet)
	for _, r := range sets {
		bySet[r.ExerciseID] = append(bySet[r.ExerciseID], r.Set)
	}
	for _, list := range bySet {
		sortSets(list)
	}

	byExercise := make(map[uuid.UUID][]sessionExerciseRow)
	for _, r := range exercises {
		byExercise[r.SessionID] = append(byExercise[r.SessionID], r)
	}

	for i := range sessions {
		rows := byExercise[sessions[i].ID]
		sortExerciseRows(rows)
		out := make([]models.CompletedExercise, 0, len(rows))
		for _, r := range rows {
			ce := r.Exercise
			ce.Sets = bySet[ce.ID]
			if ce.Sets == nil {
				ce.Sets = []models.CompletedSet{}
			}
			out = append(out, ce)
		}
		sessions[i].CompletedExercises = out
	}
}

func sortSets(sets []models.CompletedSet) {
	slices.SortStableFunc(sets, func(a, b models.CompletedSet) int {
		return cmp.Compare(a.SetNumber, b.SetNumber)
	})
}

func sortExerciseRows(rows []sessionExerciseRow) {
	slices.SortStableFunc(rows, func(a, b sessionExerciseRow) int {
		return cmp.Compare(a.Position, b.Position)
	})
}

func scanSession(row scanner) (models.Session, error) {
	var (
		s         models.Session
		workoutID *uuid.UUID
		status    string
	)
	err := row.Scan(&s.ID, &s.ClientID, &workoutID, &s.WorkoutName, &s.Date, &s.StartTime, &s.EndTime,
		&s.DurationSec, &status, &s.Location, &s.Notes, &s.PlannedExercises,
		&s.TotalVolume, &s.TotalSets, &s.TotalReps, &s.SessionRPE, &s.TechniqueQuality)
	if err != nil {
		return s, err
	}
	if workoutID != nil {
		s.WorkoutID = *workoutID
	}
	s.Status = models.SessionStatus(status)
	return s, nil
}
