package server

import (
	"net/http"
	"strings"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/session"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.repo.FetchExercises(r.Context(), r.URL.Query().Get("body_part"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var e models.Exercise
	if !decodeJSON(w, r, &e) {
		return
	}
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		s.writeError(w, &session.ValidationError{Field: "title", Reason: "required"})
		return
	}
	if err := s.repo.SaveExercise(r.Context(), &e); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.repo.FetchWorkouts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if workouts == nil {
		workouts = []models.Workout{}
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "workout")
	if !ok {
		return
	}
	wo, err := s.repo.FetchWorkout(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

// handleCreateWorkout stores a template. Exercises may reference the
// catalog by id or by title; each is resolved before saving.
func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var wo models.Workout
	if !decodeJSON(w, r, &wo) {
		return
	}
	wo.Name = strings.TrimSpace(wo.Name)
	if wo.Name == "" {
		s.writeError(w, &session.ValidationError{Field: "name", Reason: "required"})
		return
	}
	for i := range wo.Exercises {
		for j := range wo.Exercises[i].Sets {
			set := &wo.Exercises[i].Sets[j]
			if set.SetNumber == 0 {
				set.SetNumber = j + 1
			}
		}
	}
	if err := session.ResolveExercises(r.Context(), s.repo, &wo); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.repo.SaveWorkout(r.Context(), &wo); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wo)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "workout")
	if !ok {
		return
	}
	if err := s.repo.DeleteWorkout(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
