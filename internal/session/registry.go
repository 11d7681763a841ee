package session

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks open engines. A client has at most one open session.
type Registry struct {
	mu        sync.Mutex
	bySession map[uuid.UUID]*Engine
	byClient  map[uuid.UUID]uuid.UUID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySession: make(map[uuid.UUID]*Engine),
		byClient:  make(map[uuid.UUID]uuid.UUID),
	}
}

// Open registers e. It fails with ErrAlreadyActive if the session is
// already open or its client has another open session.
func (r *Registry) Open(e *Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySession[e.ID()]; ok {
		return ErrAlreadyActive
	}
	if _, ok := r.byClient[e.ClientID()]; ok {
		return ErrAlreadyActive
	}
	r.bySession[e.ID()] = e
	r.byClient[e.ClientID()] = e.ID()
	return nil
}

// Get returns the open engine for a session.
func (r *Registry) Get(sessionID uuid.UUID) (*Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.bySession[sessionID]
	return e, ok
}

// ForClient returns the client's open engine, if any.
func (r *Registry) ForClient(clientID uuid.UUID) (*Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byClient[clientID]
	if !ok {
		return nil, false
	}
	return r.bySession[id], true
}

// Close stops the session's timers and forgets it.
func (r *Registry) Close(sessionID uuid.UUID) {
	r.mu.Lock()
	e, ok := r.bySession[sessionID]
	if ok {
		delete(r.bySession, sessionID)
		delete(r.byClient, e.ClientID())
	}
	r.mu.Unlock()
	if ok {
		e.Close()
	}
}

// Engines returns the open engines in no particular order.
func (r *Registry) Engines() []*Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Engine, 0, len(r.bySession))
	for _, e := range r.bySession {
		out = append(out, e)
	}
	return out
}

// CloseAll closes every open engine.
func (r *Registry) CloseAll() {
	for _, e := range r.Engines() {
		r.Close(e.ID())
	}
}

// Len returns the number of open engines.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySession)
}
