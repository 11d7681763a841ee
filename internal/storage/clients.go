package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/google/uuid"
)

const clientColumns = `id, first_name, last_name, email, gender, birth_date,
	height_cm, current_weight_kg, target_weight_kg,
	body_fat_pct, muscle_mass_kg, water_pct, bone_mass_kg, visceral_fat_level, created_at`

// SaveClient inserts a client or updates its profile and measurements.
func (db *DB) SaveClient(ctx context.Context, c *models.Client) error {
	var birth *time.Time
	if !c.BirthDate.IsZero() {
		birth = &c.BirthDate
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			gender = EXCLUDED.gender,
			birth_date = EXCLUDED.birth_date,
			height_cm = EXCLUDED.height_cm,
			current_weight_kg = EXCLUDED.current_weight_kg,
			target_weight_kg = EXCLUDED.target_weight_kg,
			body_fat_pct = EXCLUDED.body_fat_pct,
			muscle_mass_kg = EXCLUDED.muscle_mass_kg,
			water_pct = EXCLUDED.water_pct,
			bone_mass_kg = EXCLUDED.bone_mass_kg,
			visceral_fat_level = EXCLUDED.visceral_fat_level`,
		c.ID, c.FirstName, c.LastName, c.Email, string(c.Gender), birth,
		c.HeightCm, c.CurrentWeightKg, c.TargetWeightKg,
		c.BodyFatPct, c.MuscleMassKg, c.WaterPct, c.BoneMassKg, c.VisceralFatLevel, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving client: %w", err)
	}
	return nil
}

// FetchClients returns all clients ordered by name, without their history.
func (db *DB) FetchClients(ctx context.Context) ([]models.Client, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer rows.Close()

	var result []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// FetchClient returns one client with its FitScore, sessions and the last
// 30 days of nutrition and lifestyle logs.
func (db *DB) FetchClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	c, err := scanClient(db.Pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "client")
	}

	fs, err := db.FetchFitScore(ctx, id)
	switch {
	case err == nil:
		c.FitScore = fs
	case errors.Is(err, ErrNotFound):
		d := models.NewFitScore()
		c.FitScore = &d
	default:
		return nil, err
	}

	if c.Sessions, err = db.FetchSessionsFor(ctx, id); err != nil {
		return nil, err
	}
	since := time.Now().UTC().AddDate(0, 0, -30)
	if c.NutritionLogs, err = db.FetchNutritionLogs(ctx, id, since); err != nil {
		return nil, err
	}
	if c.LifestyleLogs, err = db.FetchLifestyleLogs(ctx, id, since); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteClient removes a client and, by cascade, everything it owns.
func (db *DB) DeleteClient(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client: %w", ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (models.Client, error) {
	var (
		c      models.Client
		gender string
		birth  *time.Time
	)
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &gender, &birth,
		&c.HeightCm, &c.CurrentWeightKg, &c.TargetWeightKg,
		&c.BodyFatPct, &c.MuscleMassKg, &c.WaterPct, &c.BoneMassKg, &c.VisceralFatLevel, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.Gender = models.Gender(gender)
	if birth != nil {
		c.BirthDate = *birth
	}
	return c, nil
}
