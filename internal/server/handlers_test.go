package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/repcoach/internal/clock"
	"github.com/claude/repcoach/internal/drafts"
	"github.com/claude/repcoach/internal/metrics"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/scoring"
	"github.com/claude/repcoach/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-key"

var testNow = time.Date(2026, 5, 4, 7, 30, 0, 0, time.UTC)

type harness struct {
	srv     *Server
	repo    *memRepo
	clock   *clock.Fake
	engines *session.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:    newMemRepo(),
		clock:   clock.NewFake(testNow),
		engines: session.NewRegistry(),
	}
	h.srv = New(h.repo, h.engines, testKey, discardLogger())
	h.srv.SetClock(h.clock)
	t.Cleanup(h.engines.CloseAll)
	return h
}

// do sends a request through the full router. Writes carry the API key.
func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if method != http.MethodGet {
		req.Header.Set("X-API-Key", testKey)
	}
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

// seed stores a client and a one-exercise, two-set workout.
func (h *harness) seed(t *testing.T) (*models.Client, *models.Workout) {
	t.Helper()
	c := models.NewClient("Ada", "Byrne", models.GenderFemale, testNow.AddDate(-30, 0, 0), 170, 65, 62)
	require.NoError(t, h.repo.SaveClient(t.Context(), c))
	squat := models.Exercise{Title: "Back Squat", BodyPart: "Legs"}
	require.NoError(t, h.repo.SaveExercise(t.Context(), &squat))
	w := &models.Workout{
		Name: "Legs A",
		Exercises: []models.WorkoutExercise{{
			Exercise: squat,
			Sets: []models.PlannedSet{
				{SetNumber: 1, Reps: 5, Weight: 100, Unit: models.UnitKg, RestSeconds: 60},
				{SetNumber: 2, Reps: 5, Weight: 100, Unit: models.UnitKg, RestSeconds: 60},
			},
		}},
	}
	require.NoError(t, h.repo.SaveWorkout(t.Context(), w))
	return c, w
}

func (h *harness) schedule(t *testing.T, c *models.Client, w *models.Workout) uuid.UUID {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/v1/sessions", map[string]any{
		"client_id":  c.ID,
		"workout_id": w.ID,
		"date":       "2026-05-04",
		"location":   "Studio 2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Session](t, rec).ID
}

// TestHandleMeDefault verifies /me returns the dev user when no tailnet
// identity is configured.
func TestHandleMeDefault(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[UserInfo](t, rec)
	assert.Equal(t, devUser, info)
}

// TestScoreCategories verifies the band table is served in order.
func TestScoreCategories(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/v1/score-categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bands := decode[[]scoring.Band](t, rec)
	assert.Equal(t, scoring.Bands(), bands)
}

// TestCreateClient verifies a created client is stored with a computed
// FitScore that the fitscore endpoint then serves.
func TestCreateClient(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/v1/clients", map[string]any{
		"first_name":        "  Lena ",
		"last_name":         "Moss",
		"gender":            "female",
		"birth_date":        "1994-02-11",
		"height_cm":         168,
		"current_weight_kg": 61,
		"target_weight_kg":  58,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[models.Client](t, rec)
	assert.Equal(t, "Lena", c.FirstName)
	require.NotNil(t, c.FitScore)

	stored, err := h.repo.FetchFitScore(t.Context(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.FitScore.Overall, stored.Overall)

	rec = h.do(t, http.MethodGet, "/api/v1/clients/"+c.ID.String()+"/fitscore", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[fitScoreBody](t, rec)
	assert.Equal(t, c.ID, body.ClientID)
	assert.Equal(t, scoring.CategoryOf(stored.Overall), body.Category)
	assert.Contains(t, body.Components, "strength")
}

// TestCreateClient_Validation verifies malformed clients are refused with 400.
func TestCreateClient_Validation(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"last_name": "X"}},
		{"bad gender", map[string]any{"first_name": "A", "gender": "robot"}},
		{"bad birth date", map[string]any{"first_name": "A", "birth_date": "11/02/1994"}},
		{"negative weight", map[string]any{"first_name": "A", "current_weight_kg": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/api/v1/clients", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Empty(t, h.repo.clients)
}

// TestNotFoundAndBadID verifies missing rows map to 404 and malformed ids to 400.
func TestNotFoundAndBadID(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/v1/clients/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/v1/sessions/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/v1/clients/nope", nil).Code)
}

// TestAPIKeyRequired verifies writes need the configured key.
func TestAPIKeyRequired(t *testing.T) {
	h := newHarness(t)
	body := bytes.NewBufferString(`{"first_name":"A"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", body)
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/clients", body)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestCreateWorkout_ResolvesByTitle verifies template exercises given only
// by title are filled from the catalog.
func TestCreateWorkout_ResolvesByTitle(t *testing.T) {
	h := newHarness(t)
	bench := models.Exercise{Title: "Bench Press", BodyPart: "Chest"}
	require.NoError(t, h.repo.SaveExercise(t.Context(), &bench))

	rec := h.do(t, http.MethodPost, "/api/v1/workouts", map[string]any{
		"name": "Push",
		"exercises": []map[string]any{{
			"exercise": map[string]any{"title": "bench press"},
			"sets":     []map[string]any{{"reps": 8, "weight": 60, "unit": "kg"}, {"reps": 8, "weight": 60, "unit": "kg"}},
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	w := decode[models.Workout](t, rec)
	require.Len(t, w.Exercises, 1)
	assert.Equal(t, bench.ID, w.Exercises[0].Exercise.ID)
	assert.Equal(t, 2, w.Exercises[0].Sets[1].SetNumber)

	rec = h.do(t, http.MethodPost, "/api/v1/workouts", map[string]any{
		"name":      "Pull",
		"exercises": []map[string]any{{"exercise": map[string]any{"title": "Muscle Up"}}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestDeleteWorkout_Scheduled verifies a template used by a scheduled
// session cannot be deleted.
func TestDeleteWorkout_Scheduled(t *testing.T) {
	h := newHarness(t)
	c, w := h.seed(t)
	h.schedule(t, c, w)
	rec := h.do(t, http.MethodDelete, "/api/v1/workouts/"+w.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// TestSessionLifecycle runs a session from scheduling to finalize through
// the API and checks the stored result and the client's new score.
func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t)
	c, w := h.seed(t)
	id := h.schedule(t, c, w)
	base := "/api/v1/sessions/" + id.String()

	rec := h.do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decode[session.View](t, rec)
	assert.Equal(t, session.StateInProgress, v.State)
	assert.Equal(t, "Back Squat", v.ExerciseTitle)
	assert.Equal(t, 1, h.engines.Len())

	rpe := 8
	rec = h.do(t, http.MethodPut, base+"/set", map[string]any{"reps": 6, "weight": 102.5, "rpe": rpe})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, base+"/complete-set", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decode[session.View](t, rec)
	assert.Equal(t, session.StateResting, v.State)
	assert.Equal(t, 60, v.RestRemaining)

	// sets cannot be completed while resting
	rec = h.do(t, http.MethodPost, base+"/complete-set", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	rej := decode[rejectionBody](t, rec)
	require.NotNil(t, rej.Rejection)
	assert.Equal(t, session.CodeNotInProgress, rej.Rejection.Code)
	assert.Equal(t, session.StateResting, rej.State.State)

	h.clock.Advance(10 * time.Second)
	rec = h.do(t, http.MethodGet, base+"/state", nil)
	v = decode[session.View](t, rec)
	assert.Equal(t, 50, v.RestRemaining)
	assert.Equal(t, 10, v.ElapsedSecs)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, base+"/skip-rest", nil).Code)
	rec = h.do(t, http.MethodPost, base+"/complete-set", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.StateSummaryPending, decode[session.View](t, rec).State)

	rec = h.do(t, http.MethodPut, base+"/ratings", map[string]any{"session_rpe": 7, "technique_quality": 9})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, base+"/finalize", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var done struct {
		Session  models.Session `json:"session"`
		FitScore fitScoreBody   `json:"fit_score"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&done))
	assert.Equal(t, models.StatusCompleted, done.Session.Status)
	assert.Equal(t, c.ID, done.FitScore.ClientID)
	assert.Zero(t, h.engines.Len())

	stored, err := h.repo.FetchSession(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, "Studio 2", stored.Location)
	first := stored.CompletedExercises[0].Sets[0]
	assert.Equal(t, 6, first.Reps)
	require.NotNil(t, first.ActualRestSecs)
	assert.Equal(t, 10, *first.ActualRestSecs)
	require.NotNil(t, stored.SessionRPE)
	assert.Equal(t, 7, *stored.SessionRPE)

	score, err := h.repo.FetchFitScore(t.Context(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, done.FitScore.FitScore.Overall, score.Overall)

	// a finished session accepts no more operations
	assert.Equal(t, http.StatusConflict, h.do(t, http.MethodPost, base+"/start", nil).Code)
	rec = h.do(t, http.MethodGet, base+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.StateCompleted, decode[session.View](t, rec).State)
}

// TestFinalize_SaveFailure verifies a failed save answers 500 and keeps the
// engine open in its previous state.
func TestFinalize_SaveFailure(t *testing.T) {
	h := newHarness(t)
	c, w := h.seed(t)
	base := "/api/v1/sessions/" + h.schedule(t, c, w).String()
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, base+"/start", nil).Code)

	h.repo.failSaveSession = errors.New("disk full")
	rec := h.do(t, http.MethodPost, base+"/finalize", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, h.engines.Len())

	h.repo.failSaveSession = nil
	rec = h.do(t, http.MethodGet, base+"/state", nil)
	assert.Equal(t, session.StateInProgress, decode[session.View](t, rec).State)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodPost, base+"/finalize", nil).Code)
}

// TestDeleteSession verifies an open session must be cancelled before it
// can be deleted.
func TestDeleteSession(t *testing.T) {
	h := newHarness(t)
	c, w := h.seed(t)
	base := "/api/v1/sessions/" + h.schedule(t, c, w).String()
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, base+"/start", nil).Code)

	assert.Equal(t, http.StatusConflict, h.do(t, http.MethodDelete, base, nil).Code)
	assert.Equal(t, http.StatusConflict, h.do(t, http.MethodDelete, "/api/v1/clients/"+c.ID.String(), nil).Code)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, base+"/cancel", nil).Code)
	assert.Zero(t, h.engines.Len())
	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, base, nil).Code)
}

// TestRejectedOpOnScheduledSession verifies an op rejected before start
// does not hold the client's active slot.
func TestRejectedOpOnScheduledSession(t *testing.T) {
	h := newHarness(t)
	c, w := h.seed(t)
	a := "/api/v1/sessions/" + h.schedule(t, c, w).String()
	b := "/api/v1/sessions/" + h.schedule(t, c, w).String()

	rec := h.do(t, http.MethodPost, a+"/complete-set", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	rej := decode[rejectionBody](t, rec)
	require.NotNil(t, rej.Rejection)
	assert.Equal(t, session.CodeNotStarted, rej.Rejection.Code)
	assert.Zero(t, h.engines.Len())

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, b+"/start", nil).Code)
	assert.Equal(t, 1, h.engines.Len())
	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, a, nil).Code)

	// the client's other session cannot start while b runs
	c2 := "/api/v1/sessions/" + h.schedule(t, c, w).String()
	rec = h.do(t, http.MethodPost, c2+"/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), session.ErrAlreadyActive.Error())
	assert.Equal(t, 1, h.engines.Len())

	// cancelling a scheduled session never opens an engine
	rec = h.do(t, http.MethodPost, c2+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, session.StateCancelled, decode[session.View](t, rec).State)
	assert.Equal(t, 1, h.engines.Len())
}

// TestRestoreDrafts verifies a checkpointed session is reopened paused by
// a fresh server sharing the same draft store.
func TestRestoreDrafts(t *testing.T) {
	log := discardLogger()
	store, err := drafts.Open(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := newHarness(t)
	h.srv.SetDrafts(store)
	c, w := h.seed(t)
	id := h.schedule(t, c, w)
	base := "/api/v1/sessions/" + id.String()
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, base+"/start", nil).Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, base+"/complete-set", nil).Code)
	h.clock.Advance(5 * time.Second)
	h.srv.Shutdown(t.Context())
	assert.Zero(t, h.engines.Len())

	engines := session.NewRegistry()
	t.Cleanup(engines.CloseAll)
	restarted := New(h.repo, engines, testKey, log)
	restarted.SetClock(h.clock)
	restarted.SetDrafts(store)
	n, err := restarted.RestoreDrafts(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, ok := engines.Get(id)
	require.True(t, ok)
	assert.True(t, e.Paused())
	assert.Equal(t, session.StateResting, e.State())
	assert.Equal(t, 55, e.RestRemaining())
}

// TestMetricsEndpoint verifies request and session collectors are served.
func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	m, reg := metrics.NewTestManagerAndRegistry()
	h.srv.SetMetrics(m, reg)
	c, w := h.seed(t)
	base := "/api/v1/sessions/" + h.schedule(t, c, w).String()
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, base+"/start", nil).Code)

	rec := h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `repcoach_test_server_request_duration_seconds_count{method="POST",route="/api/v1/sessions/{id}/start",status_code="200"} 1`)
	assert.Contains(t, out, `repcoach_test_server_sessions{event="started"} 1`)
	assert.Contains(t, out, "repcoach_test_server_active_sessions 1")
}

// TestMCPMount verifies the MCP transport is reachable at /mcp.
func TestMCPMount(t *testing.T) {
	h := newHarness(t)
	h.srv.SetMCP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := h.do(t, http.MethodPost, "/mcp", map[string]any{"jsonrpc": "2.0"})
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
