// Package session runs a client through a planned workout. An Engine owns
// one Session, moves a cursor through its exercises and sets, times rests
// between them and, on finalize, persists the result and rescores the client.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/claude/repcoach/internal/clock"
	"github.com/claude/repcoach/internal/models"
	"github.com/google/uuid"
)

// Default rest lengths between exercises.
const (
	DefaultShortRest  = 30 * time.Second
	DefaultNormalRest = 90 * time.Second
)

const tickPeriod = time.Second

// Cursor points at a set: Exercise indexes Session.CompletedExercises and
// Set indexes that exercise's Sets.
type Cursor struct {
	Exercise int `json:"exercise"`
	Set      int `json:"set"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source. Defaults to the wall clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithStore sets where checkpoints are persisted. Without a store,
// Save, Finalize and Cancel only change memory.
func WithStore(s Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithDrafts sets where in-progress snapshots are kept.
func WithDrafts(d DraftStore) Option {
	return func(e *Engine) { e.drafts = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithListener adds an event listener.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// WithRestDurations sets the rest between exercises of the same superset
// (short) and between unrelated exercises (normal).
func WithRestDurations(short, normal time.Duration) Option {
	return func(e *Engine) {
		if short > 0 {
			e.shortRest = seconds(short)
		}
		if normal > 0 {
			e.normalRest = seconds(normal)
		}
	}
}

// Engine is the live state machine for one session. All methods are safe
// for concurrent use; ticks from the clock are serialized with operations.
type Engine struct {
	mu sync.Mutex

	sess   *models.Session
	client *models.Client
	state  State
	cursor Cursor
	paused bool

	elapsed       int
	restTotal     int
	restRemaining int
	restOwner     *Cursor
	rested        int

	clock         clock.Clock
	elapsedTicker clock.Ticker
	restTicker    clock.Ticker

	store      Store
	drafts     DraftStore
	log        *slog.Logger
	listeners  []Listener
	shortRest  int
	normalRest int

	last    *Rejection
	pending []Event
}

// New wraps a scheduled or in-progress session. An in-progress session is
// opened paused, with its recorded duration as elapsed time, at the first
// set not yet stamped; call Resume to restart its clock. A session whose
// sets are all stamped opens in SummaryPending. Drafts restore the exact
// position and rest (see Restore).
func New(sess *models.Session, client *models.Client, opts ...Option) (*Engine, error) {
	if sess == nil {
		return nil, &ValidationError{Field: "session", Reason: "required"}
	}
	if client == nil {
		return nil, &ValidationError{Field: "client", Reason: "required"}
	}
	if sess.ClientID != client.ID {
		return nil, &ValidationError{Field: "client", Reason: "does not own session"}
	}
	if sess.Status.IsTerminal() {
		return nil, &ValidationError{Field: "session", Reason: "already " + string(sess.Status)}
	}

	e := newEngine(sess, client, opts)
	if sess.Status == models.StatusInProgress {
		e.state = StateInProgress
		e.elapsed = int(sess.DurationSec)
		e.paused = true
		cur, finished := resumeCursor(sess)
		e.cursor = cur
		if finished {
			e.state = StateSummaryPending
		}
	}
	return e, nil
}

// resumeCursor finds where a stored session left off: the first set with no
// completion stamp in an exercise not yet marked completed. finished is true
// when there is no such set; the cursor is then on the last set.
func resumeCursor(sess *models.Session) (c Cursor, finished bool) {
	for i, ex := range sess.CompletedExercises {
		for j, set := range ex.Sets {
			if !ex.WasCompleted && set.CompletedAt == nil {
				return Cursor{Exercise: i, Set: j}, false
			}
			c, finished = Cursor{Exercise: i, Set: j}, true
		}
	}
	return c, finished
}

func newEngine(sess *models.Session, client *models.Client, opts []Option) *Engine {
	e := &Engine{
		sess:       sess,
		client:     client,
		state:      StateScheduled,
		clock:      clock.New(),
		log:        slog.Default(),
		shortRest:  seconds(DefaultShortRest),
		normalRest: seconds(DefaultNormalRest),
	}
	for _, o := range opts {
		o(e)
	}
	e.elapsedTicker = e.clock.NewTicker(tickPeriod, e.onElapsedTick)
	e.restTicker = e.clock.NewTicker(tickPeriod, e.onRestTick)
	return e
}

// ID returns the session id.
func (e *Engine) ID() uuid.UUID { return e.sess.ID }

// ClientID returns the owning client's id.
func (e *Engine) ClientID() uuid.UUID { return e.client.ID }

// State returns the current execution state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Cursor returns the current (exercise, set) position.
func (e *Engine) Cursor() Cursor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// Paused reports whether the timers are suspended.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Elapsed returns the whole seconds the session clock has run.
func (e *Engine) Elapsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// RestRemaining returns the seconds left in the current rest, 0 when not resting.
func (e *Engine) RestRemaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.restRemaining
}

// Session returns a copy of the session.
func (e *Engine) Session() *models.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Clone()
}

// LastRejection returns why the most recent operation was not applied, or
// nil if it was.
func (e *Engine) LastRejection() *Rejection {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return nil
	}
	r := *e.last
	return &r
}

// View is a read model of the engine for display.
type View struct {
	SessionID     uuid.UUID      `json:"session_id"`
	ClientID      uuid.UUID      `json:"client_id"`
	State         State          `json:"state"`
	Paused        bool           `json:"paused"`
	Cursor        Cursor         `json:"cursor"`
	ExerciseTitle string         `json:"exercise_title,omitempty"`
	SetNumber     int            `json:"set_number,omitempty"`
	ElapsedSecs   int            `json:"elapsed_secs"`
	RestRemaining int            `json:"rest_remaining_secs"`
	Summary       models.Summary `json:"summary"`
}

// View returns the current read model.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := View{
		SessionID:     e.sess.ID,
		ClientID:      e.client.ID,
		State:         e.state,
		Paused:        e.paused,
		Cursor:        e.cursor,
		ElapsedSecs:   e.elapsed,
		RestRemaining: e.restRemaining,
		Summary:       e.sess.Summarize(),
	}
	if ex := e.exerciseAt(e.cursor.Exercise); ex != nil {
		v.ExerciseTitle = ex.Exercise.Title
		if set := e.setAt(e.cursor); set != nil {
			v.SetNumber = set.SetNumber
		}
	}
	return v
}

// apply runs fn under the lock when o is allowed in the current state, then
// delivers queued events after unlocking.
func (e *Engine) apply(o op, fn func() bool) bool {
	e.mu.Lock()
	e.last = nil
	ok := false
	if code := permitted(o, e.state); code != "" {
		e.reject(o, code, "not allowed in state "+string(e.state))
	} else {
		ok = fn()
	}
	events := e.drain()
	e.mu.Unlock()

	e.dispatch(events)
	return ok
}

// reject records a rejection. Caller holds e.mu.
func (e *Engine) reject(o op, code Code, msg string) {
	e.last = &Rejection{Op: string(o), Code: code, State: e.state, Message: msg}
	e.log.Debug("session op rejected", "session", e.sess.ID, "op", o, "code", code, "state", e.state)
	e.emit(EventRejected)
}

// emit queues an event. Caller holds e.mu.
func (e *Engine) emit(t EventType) {
	if len(e.listeners) == 0 {
		return
	}
	ev := Event{
		Type:          t,
		SessionID:     e.sess.ID,
		ClientID:      e.client.ID,
		State:         e.state,
		Cursor:        e.cursor,
		ElapsedSecs:   e.elapsed,
		RestSecs:      e.restTotal,
		RestRemaining: e.restRemaining,
		RestedSecs:    e.rested,
		Volume:        e.sess.TotalVolume,
		At:            e.clock.Now(),
	}
	if e.client.FitScore != nil {
		ev.Overall = e.client.FitScore.Overall
	}
	if t == EventRejected && e.last != nil {
		r := *e.last
		ev.Rejection = &r
	}
	e.pending = append(e.pending, ev)
}

func (e *Engine) drain() []Event {
	events := e.pending
	e.pending = nil
	return events
}

func (e *Engine) dispatch(events []Event) {
	for _, ev := range events {
		for _, l := range e.listeners {
			l(ev)
		}
	}
}

// transition moves to s and keeps the persisted status in step.
// Caller holds e.mu.
func (e *Engine) transition(o op, s State) {
	if e.state == s {
		return
	}
	e.log.Debug("session transition", "session", e.sess.ID, "op", o, "from", e.state, "to", s)
	e.state = s
	e.sess.Status = s.Status()
	e.syncTimers()
}

// syncTimers starts or stops both tickers to match the state. Tickers are
// idempotent, so this can run after every change. Caller holds e.mu.
func (e *Engine) syncTimers() {
	run := e.state.running() && !e.paused
	if run {
		e.elapsedTicker.Start()
	} else {
		e.elapsedTicker.Stop()
	}
	if run && e.state == StateResting {
		e.restTicker.Start()
	} else {
		e.restTicker.Stop()
	}
}

func (e *Engine) stopTimers() {
	e.elapsedTicker.Stop()
	e.restTicker.Stop()
}

// onElapsedTick and onRestTick drop ticks from a ticker run that was
// stopped while they waited for the lock.
func (e *Engine) onElapsedTick(tick clock.Tick) {
	e.mu.Lock()
	if e.elapsedTicker.Current(tick) && e.state.running() && !e.paused {
		e.elapsed++
		e.emit(EventTick)
	}
	events := e.drain()
	e.mu.Unlock()
	e.dispatch(events)
}

func (e *Engine) onRestTick(tick clock.Tick) {
	e.mu.Lock()
	if e.restTicker.Current(tick) && e.state == StateResting && !e.paused {
		e.restRemaining--
		if e.restRemaining <= 0 {
			e.endRest(opRestTick)
		}
	}
	events := e.drain()
	e.mu.Unlock()
	e.dispatch(events)
}

// startRest enters Resting for secs, timing the rest that follows the set
// at owner, if any. A non-positive duration skips the rest. Caller holds e.mu.
func (e *Engine) startRest(o op, secs int, owner *Cursor) {
	if secs <= 0 {
		e.transition(o, StateInProgress)
		return
	}
	e.restTotal = secs
	e.restRemaining = secs
	e.restOwner = owner
	e.transition(o, StateResting)
	e.emit(EventRestStarted)
}

// endRest leaves Resting and records how long the rest actually lasted on
// the set that started it. Caller holds e.mu.
func (e *Engine) endRest(o op) {
	if e.state != StateResting {
		return
	}
	rested := e.restTotal - e.restRemaining
	if e.restOwner != nil {
		if set := e.setAt(*e.restOwner); set != nil {
			set.ActualRestSecs = &rested
		}
	}
	e.restTotal = 0
	e.restRemaining = 0
	e.restOwner = nil
	e.rested = rested
	e.transition(o, StateInProgress)
	e.emit(EventRestEnded)
	e.rested = 0
}

func (e *Engine) exerciseAt(i int) *models.CompletedExercise {
	if i < 0 || i >= len(e.sess.CompletedExercises) {
		return nil
	}
	return &e.sess.CompletedExercises[i]
}

func (e *Engine) setAt(c Cursor) *models.CompletedSet {
	ex := e.exerciseAt(c.Exercise)
	if ex == nil || c.Set < 0 || c.Set >= len(ex.Sets) {
		return nil
	}
	return &ex.Sets[c.Set]
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
