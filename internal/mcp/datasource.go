package mcp

import (
	"context"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	FetchClients(ctx context.Context) ([]models.Client, error)
	FetchClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FetchSessionsFor(ctx context.Context, clientID uuid.UUID) ([]models.Session, error)
	FetchSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	FetchFitScore(ctx context.Context, clientID uuid.UUID) (*models.FitScore, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
