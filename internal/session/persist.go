package session

import (
	"context"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/scoring"
)

// Save checkpoints a session that is not yet finished: it refreshes the
// aggregates and duration, saves the session and, with a draft store
// configured, writes a snapshot that Restore can resume from.
func (e *Engine) Save(ctx context.Context) (bool, error) {
	var err error
	ok := e.apply(opSave, func() bool {
		e.sess.Recompute()
		e.sess.DurationSec = float64(e.elapsed)
		if e.store != nil {
			if serr := e.store.SaveSession(ctx, e.sess); serr != nil {
				e.log.Error("saving session", "session", e.sess.ID, "error", serr)
				err = &PersistenceError{Op: "saving session", Err: serr}
				return false
			}
		}
		if e.drafts != nil && e.state != StateScheduled {
			if derr := e.drafts.Put(ctx, e.snapshot()); derr != nil {
				e.log.Error("saving draft", "session", e.sess.ID, "error", derr)
				err = &PersistenceError{Op: "saving draft", Err: derr}
				return false
			}
		}
		e.emit(EventSaved)
		return true
	})
	return ok, err
}

// Finalize completes the session. It stops the timers, records the end
// time and duration, saves the session, then rescores the client from its
// session history and saves the new FitScore.
//
// If saving the session fails, the engine returns to its previous state
// and the error is a *PersistenceError. If the session was saved but the
// score could not be, Finalize reports true together with the error and
// the client keeps its previous FitScore.
func (e *Engine) Finalize(ctx context.Context) (bool, error) {
	var err error
	ok := e.apply(opFinalize, func() bool {
		prev := e.checkpoint()

		e.endRest(opFinalize)
		now := e.clock.Now()
		e.sess.EndTime = &now
		e.sess.DurationSec = float64(e.elapsed)
		e.sess.Recompute()
		e.transition(opFinalize, StateCompleted)

		if e.store != nil {
			if serr := e.store.SaveSession(ctx, e.sess); serr != nil {
				e.log.Error("saving finalized session", "session", e.sess.ID, "error", serr)
				e.rollback(prev)
				err = &PersistenceError{Op: "saving session", Err: serr}
				return false
			}
		}
		e.dropDraft(ctx)
		e.emit(EventFinalized)

		if serr := e.rescore(ctx); serr != nil {
			err = serr
		}
		return true
	})
	return ok, err
}

// Cancel abandons the session. The cancellation is kept in memory even if
// saving it fails.
func (e *Engine) Cancel(ctx context.Context) (bool, error) {
	var err error
	ok := e.apply(opCancel, func() bool {
		e.endRest(opCancel)
		now := e.clock.Now()
		e.sess.EndTime = &now
		e.sess.DurationSec = float64(e.elapsed)
		e.transition(opCancel, StateCancelled)
		e.emit(EventCancelled)

		if e.store != nil {
			if serr := e.store.SaveSession(ctx, e.sess); serr != nil {
				e.log.Error("saving cancelled session", "session", e.sess.ID, "error", serr)
				err = &PersistenceError{Op: "saving session", Err: serr}
			}
		}
		e.dropDraft(ctx)
		return true
	})
	return ok, err
}

// rescore recomputes the client's FitScore from its full history and saves
// it. The client's score is replaced only after the save succeeds.
// Caller holds e.mu.
func (e *Engine) rescore(ctx context.Context) error {
	history := e.client.Sessions
	if e.store != nil {
		h, err := e.store.FetchSessionsFor(ctx, e.client.ID)
		if err != nil {
			e.log.Error("loading session history", "client", e.client.ID, "error", err)
			return &PersistenceError{Op: "loading session history", Err: err}
		}
		history = h
	}
	history = withSession(history, e.sess)

	current := models.NewFitScore()
	if e.client.FitScore != nil {
		current = *e.client.FitScore
	}
	next := scoring.Update(current, e.client, history, e.clock.Now())

	if e.store != nil {
		if err := e.store.SaveFitScore(ctx, e.client.ID, next); err != nil {
			e.log.Error("saving fit score", "client", e.client.ID, "error", err)
			return &PersistenceError{Op: "saving fit score", Err: err}
		}
	}
	e.client.FitScore = &next
	e.client.Sessions = history
	e.emit(EventRescored)
	e.log.Info("client rescored", "client", e.client.ID, "session", e.sess.ID, "overall", next.Overall)
	return nil
}

// withSession returns history with s replacing any entry of the same id.
func withSession(history []models.Session, s *models.Session) []models.Session {
	out := make([]models.Session, 0, len(history)+1)
	for _, h := range history {
		if h.ID != s.ID {
			out = append(out, h)
		}
	}
	return append(out, *s.Clone())
}

func (e *Engine) dropDraft(ctx context.Context) {
	if e.drafts == nil {
		return
	}
	if err := e.drafts.Delete(ctx, e.sess.ID); err != nil {
		e.log.Warn("deleting draft", "session", e.sess.ID, "error", err)
	}
}

// saved holds what Finalize changes so a failed save can be undone.
type saved struct {
	state         State
	status        models.SessionStatus
	endTime       *time.Time
	duration      float64
	restTotal     int
	restRemaining int
	restOwner     *Cursor
	ownerRest     *int
	events        int
}

func (e *Engine) checkpoint() saved {
	s := saved{
		state:         e.state,
		status:        e.sess.Status,
		endTime:       e.sess.EndTime,
		duration:      e.sess.DurationSec,
		restTotal:     e.restTotal,
		restRemaining: e.restRemaining,
		restOwner:     e.restOwner,
		events:        len(e.pending),
	}
	if e.restOwner != nil {
		if set := e.setAt(*e.restOwner); set != nil && set.ActualRestSecs != nil {
			v := *set.ActualRestSecs
			s.ownerRest = &v
		}
	}
	return s
}

func (e *Engine) rollback(s saved) {
	e.sess.EndTime = s.endTime
	e.sess.DurationSec = s.duration
	e.sess.Status = s.status
	e.restTotal = s.restTotal
	e.restRemaining = s.restRemaining
	e.restOwner = s.restOwner
	if s.restOwner != nil {
		if set := e.setAt(*s.restOwner); set != nil {
			set.ActualRestSecs = s.ownerRest
		}
	}
	e.state = s.state
	e.pending = e.pending[:s.events]
	e.syncTimers()
}
