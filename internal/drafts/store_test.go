package drafts

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testDraft(savedAt time.Time) session.Draft {
	rest := 60
	return session.Draft{
		Session: models.Session{
			ID:          uuid.New(),
			ClientID:    uuid.New(),
			WorkoutName: "Push",
			Status:      models.StatusInProgress,
			CompletedExercises: []models.CompletedExercise{{
				ID:       uuid.New(),
				Exercise: models.Exercise{ID: uuid.New(), Title: "Bench Press"},
				Sets: []models.CompletedSet{
					{SetNumber: 1, Reps: 10, Weight: 100, Unit: models.UnitLbs, ActualRestSecs: &rest},
					{SetNumber: 2, Reps: 8, Weight: 110, Unit: models.UnitLbs},
				},
			}},
		},
		State:         session.StateResting,
		Cursor:        session.Cursor{Exercise: 0, Set: 1},
		ElapsedSecs:   240,
		RestTotal:     90,
		RestRemaining: 42,
		RestOwner:     &session.Cursor{Exercise: 0, Set: 0},
		SavedAt:       savedAt,
	}
}

// TestPutGet verifies a draft reads back with its engine state intact.
func TestPutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d := testDraft(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	require.NoError(t, s.Put(ctx, d))
	got, err := s.Get(ctx, d.Session.ID)
	require.NoError(t, err)

	assert.Equal(t, d.Session.ID, got.Session.ID)
	assert.Equal(t, session.StateResting, got.State)
	assert.Equal(t, d.Cursor, got.Cursor)
	assert.Equal(t, 240, got.ElapsedSecs)
	assert.Equal(t, 42, got.RestRemaining)
	require.NotNil(t, got.RestOwner)
	assert.Equal(t, session.Cursor{}, *got.RestOwner)
	require.Len(t, got.Session.CompletedExercises, 1)
	sets := got.Session.CompletedExercises[0].Sets
	require.Len(t, sets, 2)
	require.NotNil(t, sets[0].ActualRestSecs)
	assert.Equal(t, 60, *sets[0].ActualRestSecs)
	assert.Nil(t, sets[1].ActualRestSecs)
}

// TestPutReplaces verifies a second Put of the same session overwrites the first.
func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d := testDraft(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, s.Put(ctx, d))

	d.State = session.StateInProgress
	d.RestRemaining = 0
	d.ElapsedSecs = 300
	require.NoError(t, s.Put(ctx, d))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, session.StateInProgress, all[0].State)
	assert.Equal(t, 300, all[0].ElapsedSecs)
}

// TestGetMissing verifies an unknown session reports ErrNotFound.
func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestDelete verifies a deleted draft is gone and deleting twice is fine.
func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d := testDraft(time.Now().UTC())
	require.NoError(t, s.Put(ctx, d))

	require.NoError(t, s.Delete(ctx, d.Session.ID))
	require.NoError(t, s.Delete(ctx, d.Session.ID))
	_, err := s.Get(ctx, d.Session.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestListOrderAndCorruption verifies List returns drafts oldest first and
// skips rows whose payload no longer matches its checksum.
func TestListOrderAndCorruption(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	newer := testDraft(base.Add(time.Hour))
	older := testDraft(base)
	broken := testDraft(base.Add(2 * time.Hour))
	for _, d := range []session.Draft{newer, older, broken} {
		require.NoError(t, s.Put(ctx, d))
	}

	_, err := s.db.Exec(`UPDATE drafts SET payload = '{"state":"resting"}' WHERE session_id = ?`,
		broken.Session.ID.String())
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, older.Session.ID, all[0].Session.ID)
	assert.Equal(t, newer.Session.ID, all[1].Session.ID)

	_, err = s.Get(ctx, broken.Session.ID)
	assert.Error(t, err)
}

// TestReopen verifies drafts survive closing and reopening the database.
func TestReopen(t *testing.T) {
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	d := testDraft(time.Now().UTC())

	s, err := Open(dir, log)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, d))
	require.NoError(t, s.Close())

	s, err = Open(dir, log)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, d.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Session.ID, got.Session.ID)
}
