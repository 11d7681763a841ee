package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/session"
	"github.com/google/uuid"
)

type createSessionRequest struct {
	ClientID  uuid.UUID `json:"client_id"`
	WorkoutID uuid.UUID `json:"workout_id"`
	Date      string    `json:"date"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ClientID == uuid.Nil {
		s.writeError(w, &session.ValidationError{Field: "client_id", Reason: "required"})
		return
	}
	if req.WorkoutID == uuid.Nil {
		s.writeError(w, &session.ValidationError{Field: "workout_id", Reason: "required"})
		return
	}
	date := s.clock.Now()
	if req.Date != "" {
		var err error
		if date, err = time.Parse(time.RFC3339, req.Date); err != nil {
			if date, err = time.Parse(time.DateOnly, req.Date); err != nil {
				s.writeError(w, &session.ValidationError{Field: "date", Reason: "expected RFC 3339 or YYYY-MM-DD"})
				return
			}
		}
	}

	client, err := s.repo.FetchClient(r.Context(), req.ClientID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	workout, err := s.repo.FetchWorkout(r.Context(), req.WorkoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := session.NewSession(client, workout, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess.Location = req.Location
	sess.Notes = req.Notes
	if err := s.repo.SaveSession(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("session scheduled", "session", sess.ID, "client", client.ID, "workout", workout.Name)
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	if e, open := s.engines.Get(id); open {
		writeJSON(w, http.StatusOK, e.Session())
		return
	}
	sess, err := s.repo.FetchSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleSessionState returns the live view of an open session, or a view
// derived from the stored session when no engine is open.
func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	if e, open := s.engines.Get(id); open {
		writeJSON(w, http.StatusOK, e.View())
		return
	}
	sess, err := s.repo.FetchSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View{
		SessionID:   sess.ID,
		ClientID:    sess.ClientID,
		State:       session.State(sess.Status),
		Paused:      sess.Status == models.StatusInProgress,
		ElapsedSecs: int(sess.DurationSec),
		Summary:     sess.Summarize(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	if _, open := s.engines.Get(id); open {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "session is active; cancel it first"})
		return
	}
	if err := s.repo.DeleteSession(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	if s.drafts != nil {
		if err := s.drafts.Delete(r.Context(), id); err != nil {
			s.log.Warn("deleting draft", "session", id, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionOp adapts an engine operation to a handler. A rejected operation
// answers 409 with the reason and the unchanged state.
func (s *Server) sessionOp(op func(*session.Engine) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := s.engine(w, r)
		if !ok {
			return
		}
		s.respond(w, e, op(e.Engine))
	}
}

// handleStart refuses to start a session while the client has another one
// open.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	if e.detached {
		if open, busy := s.engines.ForClient(e.ClientID()); busy && open.ID() != e.ID() {
			e.Close()
			s.writeError(w, fmt.Errorf("client %s: %w", e.ClientID(), session.ErrAlreadyActive))
			return
		}
	}
	s.respond(w, e, e.Start())
}

type updateSetRequest struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
	RPE    *int    `json:"rpe"`
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	var req updateSetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	s.respond(w, e, e.UpdateSet(req.Reps, req.Weight, req.RPE))
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Exercise int `json:"exercise"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	s.respond(w, e, e.JumpToExercise(req.Exercise))
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionRPE       *int `json:"session_rpe"`
		TechniqueQuality *int `json:"technique_quality"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	s.respond(w, e, e.Rate(req.SessionRPE, req.TechniqueQuality))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	saved, err := e.Save(r.Context())
	if err != nil {
		s.persistenceFailed(w, e, err)
		return
	}
	s.respond(w, e, saved)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	done, err := e.Finalize(r.Context())
	if done {
		s.closeEngine(e.ID())
	}
	if err != nil {
		s.persistenceFailed(w, e, err)
		return
	}
	if !done {
		s.respond(w, e, false)
		return
	}

	body := map[string]any{"session": e.Session()}
	if fs, err := s.repo.FetchFitScore(r.Context(), e.ClientID()); err == nil {
		body["fit_score"] = fitScoreResponse(e.ClientID(), *fs)
	} else {
		s.log.Warn("loading fit score after finalize", "client", e.ClientID(), "error", err)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	done, err := e.Cancel(r.Context())
	if done {
		s.closeEngine(e.ID())
	}
	if err != nil {
		s.persistenceFailed(w, e, err)
		return
	}
	s.respond(w, e, done)
}

// engine resolves the {id} session to an open engine, writing the error
// response when it cannot.
func (s *Server) engine(w http.ResponseWriter, r *http.Request) (*lease, bool) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return nil, false
	}
	e, err := s.engineFor(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return e, true
}

type rejectionBody struct {
	Error     string             `json:"error"`
	Rejection *session.Rejection `json:"rejection"`
	State     session.View       `json:"state"`
}

// respond answers with the engine's view, or 409 with the rejection. A
// detached engine is settled first.
func (s *Server) respond(w http.ResponseWriter, e *lease, applied bool) {
	if err := s.settle(e); err != nil {
		s.writeError(w, err)
		return
	}
	if applied {
		writeJSON(w, http.StatusOK, e.View())
		return
	}
	body := rejectionBody{Error: "operation rejected", Rejection: e.LastRejection(), State: e.View()}
	if body.Rejection != nil {
		body.Error = body.Rejection.Message
	}
	writeJSON(w, http.StatusConflict, body)
}

// persistenceFailed answers 500 while returning the session as the engine
// still holds it.
func (s *Server) persistenceFailed(w http.ResponseWriter, e *lease, err error) {
	if serr := s.settle(e); serr != nil {
		s.log.Warn("settling session engine", "session", e.ID(), "error", serr)
	}
	s.log.Error("session persistence failed", "session", e.ID(), "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error":   err.Error(),
		"state":   e.View(),
		"session": e.Session(),
	})
}
