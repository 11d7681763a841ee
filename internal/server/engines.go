package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/repcoach/internal/session"
	"github.com/google/uuid"
)

// errSessionClosed is returned when an operation targets a session that is
// already completed or cancelled.
var errSessionClosed = errors.New("session is already closed")

func (s *Server) engineOptions() []session.Option {
	opts := []session.Option{
		session.WithClock(s.clock),
		session.WithStore(s.repo),
		session.WithLogger(s.log),
		session.WithRestDurations(s.shortRest, s.normalRest),
	}
	if s.drafts != nil {
		opts = append(opts, session.WithDrafts(s.drafts))
	}
	if s.metrics != nil {
		opts = append(opts, session.WithListener(s.metrics.Observe))
	}
	return opts
}

// lease is an engine resolved for one request. A detached lease holds the
// engine of a scheduled session that is not in the registry yet; it takes
// the client's active slot only once it has started.
type lease struct {
	*session.Engine
	detached bool
}

// engineFor returns the open engine for a session, loading the session and
// its client from the repository when no engine is open yet.
func (s *Server) engineFor(ctx context.Context, id uuid.UUID) (*lease, error) {
	if e, ok := s.engines.Get(id); ok {
		return &lease{Engine: e}, nil
	}

	sess, err := s.repo.FetchSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status.IsTerminal() {
		return nil, fmt.Errorf("session %s: %w", id, errSessionClosed)
	}
	client, err := s.repo.FetchClient(ctx, sess.ClientID)
	if err != nil {
		return nil, err
	}
	e, err := session.New(sess, client, s.engineOptions()...)
	if err != nil {
		return nil, err
	}
	if e.State() == session.StateScheduled {
		return &lease{Engine: e, detached: true}, nil
	}
	if err := s.engines.Open(e); err != nil {
		e.Close()
		// another request opened the same session first
		if existing, ok := s.engines.Get(id); ok {
			return &lease{Engine: existing}, nil
		}
		return nil, err
	}
	s.log.Info("session engine opened", "session", id, "client", client.ID)
	s.updateActiveGauge()
	return &lease{Engine: e}, nil
}

// settle registers a detached engine that has started and discards one
// that has not. Registered engines are left alone.
func (s *Server) settle(l *lease) error {
	if !l.detached {
		return nil
	}
	l.detached = false
	if st := l.State(); st == session.StateScheduled || st.IsTerminal() {
		l.Close()
		return nil
	}
	if err := s.engines.Open(l.Engine); err != nil {
		l.Close()
		return err
	}
	s.log.Info("session engine opened", "session", l.ID(), "client", l.ClientID())
	s.updateActiveGauge()
	return nil
}

func (s *Server) closeEngine(id uuid.UUID) {
	s.engines.Close(id)
	s.updateActiveGauge()
}

func (s *Server) updateActiveGauge() {
	if s.metrics != nil {
		s.metrics.GaugeActiveSessions.Set(float64(s.engines.Len()))
	}
}

// RestoreDrafts reopens every session that was running when the process
// last stopped. Restored engines start paused. Drafts that cannot be
// restored are logged and skipped.
func (s *Server) RestoreDrafts(ctx context.Context) (int, error) {
	if s.drafts == nil {
		return 0, nil
	}
	drafts, err := s.drafts.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing drafts: %w", err)
	}

	restored := 0
	for _, d := range drafts {
		client, err := s.repo.FetchClient(ctx, d.Session.ClientID)
		if err != nil {
			s.log.Warn("draft client unavailable", "session", d.Session.ID, "error", err)
			continue
		}
		e, err := session.Restore(d, client, s.engineOptions()...)
		if err != nil {
			s.log.Warn("draft not restorable", "session", d.Session.ID, "error", err)
			continue
		}
		if err := s.engines.Open(e); err != nil {
			e.Close()
			s.log.Warn("draft conflicts with an open session", "session", d.Session.ID, "error", err)
			continue
		}
		restored++
	}
	s.updateActiveGauge()
	return restored, nil
}

// Shutdown checkpoints and closes every open engine.
func (s *Server) Shutdown(ctx context.Context) {
	for _, e := range s.engines.Engines() {
		if _, err := e.Save(ctx); err != nil {
			s.log.Error("checkpointing session on shutdown", "session", e.ID(), "error", err)
		}
	}
	s.engines.CloseAll()
	s.updateActiveGauge()
}
