package server

import (
	"context"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/session"
	"github.com/claude/repcoach/internal/storage"
	"github.com/google/uuid"
)

// Repository is the persistence the HTTP API needs. storage.DB implements it.
type Repository interface {
	session.Store
	session.Catalog

	SaveClient(ctx context.Context, c *models.Client) error
	FetchClients(ctx context.Context) ([]models.Client, error)
	FetchClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error

	SaveExercise(ctx context.Context, e *models.Exercise) error
	FetchExercises(ctx context.Context, bodyPart string) ([]models.Exercise, error)

	SaveWorkout(ctx context.Context, w *models.Workout) error
	FetchWorkouts(ctx context.Context) ([]models.Workout, error)
	FetchWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error)
	DeleteWorkout(ctx context.Context, id uuid.UUID) error

	FetchSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	FetchFitScore(ctx context.Context, clientID uuid.UUID) (*models.FitScore, error)

	SaveNutritionLog(ctx context.Context, l *models.NutritionLog) error
	FetchNutritionLogs(ctx context.Context, clientID uuid.UUID, since time.Time) ([]models.NutritionLog, error)
	SaveLifestyleLog(ctx context.Context, l *models.LifestyleLog) error
	FetchLifestyleLogs(ctx context.Context, clientID uuid.UUID, since time.Time) ([]models.LifestyleLog, error)
}

var _ Repository = (*storage.DB)(nil)
