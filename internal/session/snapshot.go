package session

import (
	"time"

	"github.com/claude/repcoach/internal/models"
)

// Draft is a point-in-time copy of a running engine.
type Draft struct {
	Session       models.Session `json:"session"`
	State         State          `json:"state"`
	Cursor        Cursor         `json:"cursor"`
	ElapsedSecs   int            `json:"elapsed_secs"`
	RestTotal     int            `json:"rest_total_secs"`
	RestRemaining int            `json:"rest_remaining_secs"`
	RestOwner     *Cursor        `json:"rest_owner,omitempty"`
	SavedAt       time.Time      `json:"saved_at"`
}

// Snapshot returns a Draft of the engine's current state.
func (e *Engine) Snapshot() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) snapshot() Draft {
	d := Draft{
		Session:       *e.sess.Clone(),
		State:         e.state,
		Cursor:        e.cursor,
		ElapsedSecs:   e.elapsed,
		RestTotal:     e.restTotal,
		RestRemaining: e.restRemaining,
		SavedAt:       e.clock.Now(),
	}
	d.Session.DurationSec = float64(e.elapsed)
	if e.restOwner != nil {
		c := *e.restOwner
		d.RestOwner = &c
	}
	return d
}

// Restore rebuilds a paused engine from a draft. Call Resume to restart
// its timers.
func Restore(d Draft, client *models.Client, opts ...Option) (*Engine, error) {
	if client == nil {
		return nil, &ValidationError{Field: "client", Reason: "required"}
	}
	if d.Session.ClientID != client.ID {
		return nil, &ValidationError{Field: "client", Reason: "does not own session"}
	}
	if d.State.IsTerminal() {
		return nil, &ValidationError{Field: "draft", Reason: "session already " + string(d.State)}
	}
	if d.State != StateScheduled && !d.State.running() {
		return nil, &ValidationError{Field: "draft", Reason: "unknown state " + string(d.State)}
	}

	sess := d.Session.Clone()
	sess.Status = d.State.Status()
	e := newEngine(sess, client, opts)
	e.state = d.State
	e.cursor = d.Cursor
	e.elapsed = d.ElapsedSecs
	e.paused = d.State.running()
	if d.State == StateResting {
		e.restTotal = d.RestTotal
		e.restRemaining = d.RestRemaining
		if d.RestOwner != nil {
			c := *d.RestOwner
			e.restOwner = &c
		}
	}
	return e, nil
}
