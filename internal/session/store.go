package session

import (
	"context"

	"github.com/claude/repcoach/internal/models"
	"github.com/google/uuid"
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=session_test

// Store persists sessions and scores at checkpoints.
type Store interface {
	SaveSession(ctx context.Context, s *models.Session) error
	FetchSessionsFor(ctx context.Context, clientID uuid.UUID) ([]models.Session, error)
	SaveFitScore(ctx context.Context, clientID uuid.UUID, fs models.FitScore) error
}

// DraftStore keeps snapshots of sessions that are still running so they
// survive a restart.
type DraftStore interface {
	Put(ctx context.Context, d Draft) error
	Get(ctx context.Context, sessionID uuid.UUID) (Draft, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
	List(ctx context.Context) ([]Draft, error)
}

// Catalog looks up exercise definitions.
type Catalog interface {
	ExerciseByID(ctx context.Context, id uuid.UUID) (models.Exercise, error)
	ExerciseByTitle(ctx context.Context, title string) (models.Exercise, error)
}
