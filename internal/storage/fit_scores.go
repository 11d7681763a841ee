package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/google/uuid"
)

// SaveFitScore stores the client's current score, replacing the previous one.
func (db *DB) SaveFitScore(ctx context.Context, clientID uuid.UUID, fs models.FitScore) error {
	updated := fs.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO fit_scores (client_id, strength, endurance, mobility, body_composition,
			consistency, nutrition, recovery, progression, technique, mental,
			upper_body, lower_body, core, muscle_balance, overall,
			weekly_trend, monthly_trend, quarterly_trend, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (client_id) DO UPDATE SET
			strength = EXCLUDED.strength,
			endurance = EXCLUDED.endurance,
			mobility = EXCLUDED.mobility,
			body_composition = EXCLUDED.body_composition,
			consistency = EXCLUDED.consistency,
			nutrition = EXCLUDED.nutrition,
			recovery = EXCLUDED.recovery,
			progression = EXCLUDED.progression,
			technique = EXCLUDED.technique,
			mental = EXCLUDED.mental,
			upper_body = EXCLUDED.upper_body,
			lower_body = EXCLUDED.lower_body,
			core = EXCLUDED.core,
			muscle_balance = EXCLUDED.muscle_balance,
			overall = EXCLUDED.overall,
			weekly_trend = EXCLUDED.weekly_trend,
			monthly_trend = EXCLUDED.monthly_trend,
			quarterly_trend = EXCLUDED.quarterly_trend,
			updated_at = EXCLUDED.updated_at`,
		clientID, fs.Strength, fs.Endurance, fs.Mobility, fs.BodyComposition,
		fs.Consistency, fs.Nutrition, fs.Recovery, fs.Progression, fs.Technique, fs.Mental,
		fs.UpperBody, fs.LowerBody, fs.Core, fs.MuscleBalance, fs.Overall,
		string(fs.WeeklyTrend), string(fs.MonthlyTrend), string(fs.QuarterlyTrend), updated)
	if err != nil {
		return fmt.Errorf("saving fit score: %w", err)
	}
	return nil
}

// FetchFitScore returns the client's stored score.
func (db *DB) FetchFitScore(ctx context.Context, clientID uuid.UUID) (*models.FitScore, error) {
	var (
		fs                         models.FitScore
		weekly, monthly, quarterly string
	)
	err := db.Pool.QueryRow(ctx, `
		SELECT strength, endurance, mobility, body_composition,
			consistency, nutrition, recovery, progression, technique, mental,
			upper_body, lower_body, core, muscle_balance, overall,
			weekly_trend, monthly_trend, quarterly_trend, updated_at
		FROM fit_scores WHERE client_id = $1`, clientID).
		Scan(&fs.Strength, &fs.Endurance, &fs.Mobility, &fs.BodyComposition,
			&fs.Consistency, &fs.Nutrition, &fs.Recovery, &fs.Progression, &fs.Technique, &fs.Mental,
			&fs.UpperBody, &fs.LowerBody, &fs.Core, &fs.MuscleBalance, &fs.Overall,
			&weekly, &monthly, &quarterly, &fs.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "fit score")
	}
	fs.WeeklyTrend = models.Trend(weekly)
	fs.MonthlyTrend = models.Trend(monthly)
	fs.QuarterlyTrend = models.Trend(quarterly)
	return &fs, nil
}
