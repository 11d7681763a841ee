package session

import (
	"fmt"

	"github.com/claude/repcoach/internal/models"
)

// Start begins a scheduled session: records the start time and starts the
// elapsed clock.
func (e *Engine) Start() bool {
	return e.apply(opStart, func() bool {
		now := e.clock.Now()
		e.sess.StartTime = &now
		e.cursor = Cursor{}
		e.paused = false
		e.transition(opStart, StateInProgress)
		e.emit(EventStarted)
		return true
	})
}

// UpdateSet overwrites the actual values of the set at the cursor.
// Negative reps or weight are clamped to zero; an RPE outside 1-10 is
// stored as unset.
func (e *Engine) UpdateSet(reps int, weight float64, rpe *int) bool {
	return e.apply(opUpdateSet, func() bool {
		set := e.setAt(e.cursor)
		if set == nil {
			e.reject(opUpdateSet, CodeOutOfRange, "no set at cursor")
			return false
		}
		set.SetActual(reps, weight, rpe)
		now := e.clock.Now()
		set.CompletedAt = &now
		e.sess.Recompute()
		e.emit(EventSetUpdated)
		return true
	})
}

// CompleteSet finishes the set at the cursor. If the exercise has more
// sets the cursor moves to the next one and the set's target rest starts;
// otherwise the exercise is marked completed and the engine advances to the
// next exercise.
func (e *Engine) CompleteSet() bool {
	return e.apply(opCompleteSet, func() bool {
		ex := e.exerciseAt(e.cursor.Exercise)
		set := e.setAt(e.cursor)
		if set == nil {
			e.reject(opCompleteSet, CodeOutOfRange, "no set at cursor")
			return false
		}
		now := e.clock.Now()
		set.CompletedAt = &now
		owner := e.cursor
		e.sess.Recompute()
		e.emit(EventSetCompleted)

		if e.cursor.Set < len(ex.Sets)-1 {
			e.cursor.Set++
			e.startRest(opCompleteSet, set.TargetRestSecs, &owner)
			return true
		}
		ex.WasCompleted = true
		e.advance(opCompleteSet, &owner)
		return true
	})
}

// AdvanceExercise moves to the first set of the next exercise and starts
// the between-exercise rest: short when both exercises share a superset,
// normal otherwise. At the last exercise it enters SummaryPending with no
// rest.
func (e *Engine) AdvanceExercise() bool {
	return e.apply(opAdvance, func() bool {
		var owner *Cursor
		if e.setAt(e.cursor) != nil {
			c := e.cursor
			owner = &c
		}
		e.advance(opAdvance, owner)
		return true
	})
}

// advance is AdvanceExercise without the state check. owner, when set, is
// the set whose following rest is timed. Caller holds e.mu.
func (e *Engine) advance(o op, owner *Cursor) {
	next := e.cursor.Exercise + 1
	if next >= len(e.sess.CompletedExercises) {
		e.transition(o, StateSummaryPending)
		e.emit(EventSummaryPending)
		return
	}

	finished := e.sess.CompletedExercises[e.cursor.Exercise].SupersetID
	e.cursor = Cursor{Exercise: next}
	e.emit(EventExerciseAdvanced)

	rest := e.normalRest
	if models.SameSuperset(finished, e.sess.CompletedExercises[next].SupersetID) {
		rest = e.shortRest
	}
	e.startRest(o, rest, owner)
}

// SkipRest ends the current rest immediately.
func (e *Engine) SkipRest() bool {
	return e.apply(opSkipRest, func() bool {
		e.endRest(opSkipRest)
		return true
	})
}

// PreviousSet moves the cursor back one set, crossing into the previous
// exercise's last set when needed. From Resting it also ends the rest.
// From SummaryPending it returns to the last set without moving.
func (e *Engine) PreviousSet() bool {
	return e.apply(opPreviousSet, func() bool {
		switch e.state {
		case StateSummaryPending:
			e.transition(opPreviousSet, StateInProgress)
			return true
		case StateResting:
			e.endRest(opPreviousSet)
			e.rewind()
			return true
		}
		if !e.rewind() {
			e.reject(opPreviousSet, CodeAtStart, "already at the first set")
			return false
		}
		return true
	})
}

// rewind steps the cursor back one set. Caller holds e.mu.
func (e *Engine) rewind() bool {
	if e.cursor.Set > 0 {
		e.cursor.Set--
		return true
	}
	for i := e.cursor.Exercise - 1; i >= 0; i-- {
		if n := len(e.sess.CompletedExercises[i].Sets); n > 0 {
			e.cursor = Cursor{Exercise: i, Set: n - 1}
			return true
		}
	}
	return false
}

// JumpToExercise moves the cursor to the first set of exercise i, ending
// any rest.
func (e *Engine) JumpToExercise(i int) bool {
	return e.apply(opJump, func() bool {
		if e.exerciseAt(i) == nil {
			e.reject(opJump, CodeOutOfRange, fmt.Sprintf("exercise %d out of range", i))
			return false
		}
		e.endRest(opJump)
		e.cursor = Cursor{Exercise: i}
		e.transition(opJump, StateInProgress)
		return true
	})
}

// Pause stops both timers. Cursor, elapsed time and remaining rest are kept.
func (e *Engine) Pause() bool {
	return e.apply(opPause, func() bool {
		if e.paused {
			e.reject(opPause, CodeAlreadyPaused, "already paused")
			return false
		}
		e.paused = true
		e.syncTimers()
		e.emit(EventPaused)
		return true
	})
}

// Resume restarts the timers stopped by Pause.
func (e *Engine) Resume() bool {
	return e.apply(opResume, func() bool {
		if !e.paused {
			e.reject(opResume, CodeNotPaused, "not paused")
			return false
		}
		e.paused = false
		e.syncTimers()
		e.emit(EventResumed)
		return true
	})
}

// Rate records the session RPE and technique quality. Values outside 1-10
// clear the rating.
func (e *Engine) Rate(sessionRPE, technique *int) bool {
	return e.apply(opRate, func() bool {
		e.sess.SessionRPE = rating(sessionRPE)
		e.sess.TechniqueQuality = rating(technique)
		e.emit(EventRated)
		return true
	})
}

// Close stops both timers without changing state. An open session is left
// paused; it is the caller's job to Save it first if needed.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.state.running() && !e.paused {
		e.paused = true
		e.emit(EventPaused)
	}
	e.stopTimers()
	events := e.drain()
	e.mu.Unlock()
	e.dispatch(events)
}

func rating(v *int) *int {
	if v == nil || *v < 1 || *v > 10 {
		return nil
	}
	r := *v
	return &r
}
