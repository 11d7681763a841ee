package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/scoring"
	"github.com/claude/repcoach/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last days days.
func defaultTimeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolListClients = mcp.NewTool("list_clients",
	mcp.WithDescription("List all clients with their id, name, current overall FitScore (0-1000) and category."),
)

var toolGetFitScore = mcp.NewTool("get_fitscore",
	mcp.WithDescription("Get a client's full FitScore: the ten weighted components (0-100), regional scores, overall score, category and weekly/monthly/quarterly trends."),
	mcp.WithString("client_id", mcp.Required(), mcp.Description("Client UUID (see list_clients)")),
)

var toolGetClientSessions = mcp.NewTool("get_client_sessions",
	mcp.WithDescription("List a client's training sessions in a date range with status, volume, sets, reps, completion rate and intensity."),
	mcp.WithString("client_id", mcp.Required(), mcp.Description("Client UUID (see list_clients)")),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("status", mcp.Description("Only sessions with this status."), mcp.Enum("scheduled", "in_progress", "completed", "cancelled")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get one session with every exercise and set: targets, actual reps/weight/RPE and actual rest, plus the session summary."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID (see get_client_sessions)")),
)

// --- Result shapes ---

type clientSummary struct {
	ID       uuid.UUID            `json:"id"`
	Name     string               `json:"name"`
	Overall  float64              `json:"overall"`
	Category models.ScoreCategory `json:"category"`
	Sessions int                  `json:"sessions,omitempty"`
}

func summarizeClient(c models.Client) clientSummary {
	fs := models.NewFitScore()
	if c.FitScore != nil {
		fs = *c.FitScore
	}
	return clientSummary{
		ID:       c.ID,
		Name:     c.FullName(),
		Overall:  fs.Overall,
		Category: scoring.CategoryOf(fs.Overall),
		Sessions: len(c.Sessions),
	}
}

type sessionRow struct {
	models.Summary
	ID          uuid.UUID            `json:"id"`
	Date        time.Time            `json:"date"`
	WorkoutName string               `json:"workout_name"`
	Status      models.SessionStatus `json:"status"`
}

// --- Tool handlers ---

func (h *handlers) listClients(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.clientSummaries(ctx)
	if err != nil {
		h.log.Error("mcp list_clients", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// clientSummaries lists every client with its stored FitScore. Clients
// never scored report the default score.
func (h *handlers) clientSummaries(ctx context.Context) ([]clientSummary, error) {
	clients, err := h.ds.FetchClients(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]clientSummary, 0, len(clients))
	for _, c := range clients {
		if c.FitScore == nil {
			fs, err := h.ds.FetchFitScore(ctx, c.ID)
			switch {
			case err == nil:
				c.FitScore = fs
			case !errors.Is(err, storage.ErrNotFound):
				h.log.Warn("fetching fit score", "client", c.ID, "error", err)
			}
		}
		out = append(out, summarizeClient(c))
	}
	return out, nil
}

func (h *handlers) getFitScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireUUID(req, "client_id")
	if errResult != nil {
		return errResult, nil
	}

	c, err := h.ds.FetchClient(ctx, id)
	if err != nil {
		h.log.Error("mcp get_fitscore", "client", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	fs := models.NewFitScore()
	if c.FitScore != nil {
		fs = *c.FitScore
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"client_id":  c.ID,
		"name":       c.FullName(),
		"fit_score":  fs,
		"category":   scoring.CategoryOf(fs.Overall),
		"components": fs.Components(),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getClientSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireUUID(req, "client_id")
	if errResult != nil {
		return errResult, nil
	}
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	status := models.SessionStatus(req.GetString("status", ""))

	sessions, err := h.ds.FetchSessionsFor(ctx, id)
	if err != nil {
		h.log.Error("mcp get_client_sessions", "client", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	rows := make([]sessionRow, 0, len(sessions))
	for _, s := range sessions {
		if s.Date.Before(start) || s.Date.After(end) {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		rows = append(rows, sessionRow{
			Summary:     s.Summarize(),
			ID:          s.ID,
			Date:        s.Date,
			WorkoutName: s.WorkoutName,
			Status:      s.Status,
		})
	}

	result, err := mcp.NewToolResultJSON(rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireUUID(req, "session_id")
	if errResult != nil {
		return errResult, nil
	}

	s, err := h.ds.FetchSession(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session", "session", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"session": s,
		"summary": s.Summarize(),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// requireUUID reads a required UUID argument. On failure it returns the
// tool error to send back.
func requireUUID(req mcp.CallToolRequest, name string) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString(name)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError(name + " parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError("invalid " + name + ": " + err.Error())
	}
	return id, nil
}
