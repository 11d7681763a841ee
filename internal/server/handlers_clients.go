package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/scoring"
	"github.com/claude/repcoach/internal/session"
	"github.com/google/uuid"
)

type createClientRequest struct {
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	Email           string        `json:"email"`
	Gender          models.Gender `json:"gender"`
	BirthDate       string        `json:"birth_date"`
	HeightCm        float64       `json:"height_cm"`
	CurrentWeightKg float64       `json:"current_weight_kg"`
	TargetWeightKg  float64       `json:"target_weight_kg"`

	Measurements models.Measurements `json:"measurements"`
}

func (req createClientRequest) client() (*models.Client, error) {
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, &session.ValidationError{Field: "first_name", Reason: "required"}
	}
	gender := req.Gender
	if gender == "" {
		gender = models.GenderOther
	}
	if !gender.IsValid() {
		return nil, &session.ValidationError{Field: "gender", Reason: "must be male, female or other"}
	}
	var birth time.Time
	if req.BirthDate != "" {
		var err error
		if birth, err = time.Parse(time.DateOnly, req.BirthDate); err != nil {
			return nil, &session.ValidationError{Field: "birth_date", Reason: "expected YYYY-MM-DD"}
		}
	}
	if req.HeightCm < 0 || req.CurrentWeightKg < 0 || req.TargetWeightKg < 0 {
		return nil, &session.ValidationError{Field: "measurements", Reason: "must not be negative"}
	}

	c := models.NewClient(strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName),
		gender, birth, req.HeightCm, req.CurrentWeightKg, req.TargetWeightKg)
	c.Email = strings.TrimSpace(req.Email)
	req.Measurements.Apply(c)
	return c, nil
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.repo.FetchClients(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := req.client()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.repo.SaveClient(r.Context(), c); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.rescore(r.Context(), c); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("client created", "client", c.ID, "by", userInfoFromContext(r).Login)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "client")
	if !ok {
		return
	}
	c, err := s.repo.FetchClient(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "client")
	if !ok {
		return
	}
	if _, active := s.engines.ForClient(id); active {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "client has an active session"})
		return
	}
	if err := s.repo.DeleteClient(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateMeasurements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "client")
	if !ok {
		return
	}
	var m models.Measurements
	if !decodeJSON(w, r, &m) {
		return
	}
	c, err := s.repo.FetchClient(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	m.Apply(c)
	if err := s.repo.SaveClient(r.Context(), c); err != nil {
		s.writeError(w, err)
		return
	}
	fs, err := s.rescore(r.Context(), c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fitScoreResponse(c.ID, fs))
}

func (s *Server) handleClientSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "client")
	if !ok {
		return
	}
	sessions, err := s.repo.FetchSessionsFor(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleFitScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "client")
	if !ok {
		return
	}
	c, err := s.repo.FetchClient(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fitScoreResponse(c.ID, *c.FitScore))
}

type nutritionRequest struct {
	Date      string  `json:"date"`
	Calories  int     `json:"calories"`
	ProteinG  float64 `json:"protein_g"`
	CarbsG    float64 `json:"carbs_g"`
	FatG      float64 `json:"fat_g"`
	WaterL    float64 `json:"water_l"`
	Adherence int     `json:"adherence"`
	Notes     string  `json:"notes"`
}

type lifestyleRequest struct {
	Date         string  `json:"date"`
	SleepHours   float64 `json:"sleep_hours"`
	SleepQuality int     `json:"sleep_quality"`
	StressLevel  int     `json:"stress_level"`
	Hydration    int     `json:"hydration"`
	Notes        string  `json:"notes"`
}

// parseDay parses a YYYY-MM-DD date, defaulting to today.
func parseDay(v string, now time.Time) (time.Time, error) {
	if v == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, &session.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	return day, nil
}

func rating(field string, v int) error {
	if v < 1 || v > 10 {
		return &session.ValidationError{Field: field, Reason: "must be between 1 and 10"}
	}
	return nil
}

func (s *Server) handleNutritionLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "client")
	if !ok {
		return
	}
	var req nutritionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	day, err := parseDay(req.Date, s.clock.Now())
	if err == nil {
		err = rating("adherence", req.Adherence)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	l := models.NutritionLog{
		ClientID:  id,
		Date:      day,
		Calories:  req.Calories,
		ProteinG:  req.ProteinG,
		CarbsG:    req.CarbsG,
		FatG:      req.FatG,
		WaterL:    req.WaterL,
		Adherence: req.Adherence,
		Notes:     req.Notes,
	}
	s.saveLog(w, r, id, func(ctx context.Context) error { return s.repo.SaveNutritionLog(ctx, &l) })
}

func (s *Server) handleLifestyleLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "client")
	if !ok {
		return
	}
	var req lifestyleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	day, err := parseDay(req.Date, s.clock.Now())
	for _, check := range []error{
		err,
		rating("sleep_quality", req.SleepQuality),
		rating("stress_level", req.StressLevel),
		rating("hydration", req.Hydration),
	} {
		if check != nil {
			s.writeError(w, check)
			return
		}
	}
	l := models.LifestyleLog{
		ClientID:     id,
		Date:         day,
		SleepHours:   req.SleepHours,
		SleepQuality: req.SleepQuality,
		StressLevel:  req.StressLevel,
		Hydration:    req.Hydration,
		Notes:        req.Notes,
	}
	s.saveLog(w, r, id, func(ctx context.Context) error { return s.repo.SaveLifestyleLog(ctx, &l) })
}

// saveLog stores a daily log for a client and rescores it.
func (s *Server) saveLog(w http.ResponseWriter, r *http.Request, clientID uuid.UUID, save func(context.Context) error) {
	if _, err := s.repo.FetchClient(r.Context(), clientID); err != nil {
		s.writeError(w, err)
		return
	}
	if err := save(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	// reload so the new log is part of the 30-day window
	c, err := s.repo.FetchClient(r.Context(), clientID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	fs, err := s.rescore(r.Context(), c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fitScoreResponse(clientID, fs))
}

// rescore recomputes and stores the client's FitScore from everything
// currently loaded on it.
func (s *Server) rescore(ctx context.Context, c *models.Client) (models.FitScore, error) {
	current := models.NewFitScore()
	if c.FitScore != nil {
		current = *c.FitScore
	}
	next := scoring.Update(current, c, c.Sessions, s.clock.Now())
	if err := s.repo.SaveFitScore(ctx, c.ID, next); err != nil {
		return current, err
	}
	c.FitScore = &next
	if s.metrics != nil {
		s.metrics.HistOverallScore.Observe(next.Overall)
	}
	return next, nil
}

type fitScoreBody struct {
	ClientID   uuid.UUID            `json:"client_id"`
	FitScore   models.FitScore      `json:"fit_score"`
	Category   models.ScoreCategory `json:"category"`
	Components map[string]float64   `json:"components"`
}

func fitScoreResponse(clientID uuid.UUID, fs models.FitScore) fitScoreBody {
	return fitScoreBody{
		ClientID:   clientID,
		FitScore:   fs,
		Category:   scoring.CategoryOf(fs.Overall),
		Components: fs.Components(),
	}
}
