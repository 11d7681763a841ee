package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/repcoach/internal/scoring"
	"github.com/mark3labs/mcp-go/mcp"
)

var resScoreCategories = mcp.NewResource(
	"repcoach://score_categories",
	"Score Categories",
	mcp.WithResourceDescription("FitScore category bands from Elite down to Needs Work, with their overall-score ranges"),
	mcp.WithMIMEType("application/json"),
)

var resClientRoster = mcp.NewResource(
	"repcoach://clients",
	"Client Roster",
	mcp.WithResourceDescription("Every client with their current overall FitScore and category"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) scoreCategories(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, scoring.Bands())
}

func (h *handlers) clientRoster(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	roster, err := h.clientSummaries(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, roster)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
