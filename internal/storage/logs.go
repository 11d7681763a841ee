package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/google/uuid"
)

// SaveNutritionLog stores a day of intake. A second log for the same
// client and day replaces the first.
func (db *DB) SaveNutritionLog(ctx context.Context, l *models.NutritionLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO nutrition_logs (id, client_id, date, calories, protein_g, carbs_g, fat_g, water_l, adherence, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (client_id, date) DO UPDATE SET
			calories = EXCLUDED.calories,
			protein_g = EXCLUDED.protein_g,
			carbs_g = EXCLUDED.carbs_g,
			fat_g = EXCLUDED.fat_g,
			water_l = EXCLUDED.water_l,
			adherence = EXCLUDED.adherence,
			notes = EXCLUDED.notes
		RETURNING id`,
		l.ID, l.ClientID, l.Date, l.Calories, l.ProteinG, l.CarbsG, l.FatG, l.WaterL, l.Adherence, l.Notes).
		Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("saving nutrition log: %w", err)
	}
	return nil
}

// FetchNutritionLogs returns a client's nutrition logs dated on or after since.
func (db *DB) FetchNutritionLogs(ctx context.Context, clientID uuid.UUID, since time.Time) ([]models.NutritionLog, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, client_id, date, calories, protein_g, carbs_g, fat_g, water_l, adherence, notes
		 FROM nutrition_logs
		 WHERE client_id = $1 AND date >= $2
		 ORDER BY date ASC`, clientID, since)
	if err != nil {
		return nil, fmt.Errorf("querying nutrition logs: %w", err)
	}
	defer rows.Close()

	var result []models.NutritionLog
	for rows.Next() {
		var l models.NutritionLog
		if err := rows.Scan(&l.ID, &l.ClientID, &l.Date, &l.Calories, &l.ProteinG, &l.CarbsG,
			&l.FatG, &l.WaterL, &l.Adherence, &l.Notes); err != nil {
			return nil, fmt.Errorf("scanning nutrition log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// SaveLifestyleLog stores a day of recovery inputs. A second log for the
// same client and day replaces the first.
func (db *DB) SaveLifestyleLog(ctx context.Context, l *models.LifestyleLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO lifestyle_logs (id, client_id, date, sleep_hours, sleep_quality, stress_level, hydration, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (client_id, date) DO UPDATE SET
			sleep_hours = EXCLUDED.sleep_hours,
			sleep_quality = EXCLUDED.sleep_quality,
			stress_level = EXCLUDED.stress_level,
			hydration = EXCLUDED.hydration,
			notes = EXCLUDED.notes
		RETURNING id`,
		l.ID, l.ClientID, l.Date, l.SleepHours, l.SleepQuality, l.StressLevel, l.Hydration, l.Notes).
		Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("saving lifestyle log: %w", err)
	}
	return nil
}

// FetchLifestyleLogs returns a client's lifestyle logs dated on or after since.
func (db *DB) FetchLifestyleLogs(ctx context.Context, clientID uuid.UUID, since time.Time) ([]models.LifestyleLog, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, client_id, date, sleep_hours, sleep_quality, stress_level, hydration, notes
		 FROM lifestyle_logs
		 WHERE client_id = $1 AND date >= $2
		 ORDER BY date ASC`, clientID, since)
	if err != nil {
		return nil, fmt.Errorf("querying lifestyle logs: %w", err)
	}
	defer rows.Close()

	var result []models.LifestyleLog
	for rows.Next() {
		var l models.LifestyleLog
		if err := rows.Scan(&l.ID, &l.ClientID, &l.Date, &l.SleepHours, &l.SleepQuality,
			&l.StressLevel, &l.Hydration, &l.Notes); err != nil {
			return nil, fmt.Errorf("scanning lifestyle log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
