package server

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/storage"
	"github.com/google/uuid"
)

var _ Repository = (*memRepo)(nil)

// memRepo is an in-memory Repository for handler tests.
type memRepo struct {
	mu        sync.Mutex
	clients   map[uuid.UUID]models.Client
	exercises map[uuid.UUID]models.Exercise
	workouts  map[uuid.UUID]models.Workout
	sessions  map[uuid.UUID]models.Session
	scores    map[uuid.UUID]models.FitScore
	nutrition []models.NutritionLog
	lifestyle []models.LifestyleLog

	failSaveSession error
}

func newMemRepo() *memRepo {
	return &memRepo{
		clients:   map[uuid.UUID]models.Client{},
		exercises: map[uuid.UUID]models.Exercise{},
		workouts:  map[uuid.UUID]models.Workout{},
		sessions:  map[uuid.UUID]models.Session{},
		scores:    map[uuid.UUID]models.FitScore{},
	}
}

func (m *memRepo) SaveClient(_ context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *c
	stored.Sessions, stored.FitScore, stored.NutritionLogs, stored.LifestyleLogs = nil, nil, nil, nil
	m.clients[c.ID] = stored
	return nil
}

func (m *memRepo) FetchClients(_ context.Context) ([]models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Client
	for _, c := range m.clients {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Client) int { return cmp.Compare(a.FirstName, b.FirstName) })
	return out, nil
}

func (m *memRepo) FetchClient(_ context.Context, id uuid.UUID) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", id, storage.ErrNotFound)
	}
	fs, ok := m.scores[id]
	if !ok {
		fs = models.NewFitScore()
	}
	c.FitScore = &fs
	c.Sessions = m.sessionsFor(id)
	for _, l := range m.nutrition {
		if l.ClientID == id {
			c.NutritionLogs = append(c.NutritionLogs, l)
		}
	}
	for _, l := range m.lifestyle {
		if l.ClientID == id {
			c.LifestyleLogs = append(c.LifestyleLogs, l)
		}
	}
	return &c, nil
}

func (m *memRepo) DeleteClient(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return fmt.Errorf("client %s: %w", id, storage.ErrNotFound)
	}
	delete(m.clients, id)
	return nil
}

func (m *memRepo) SaveExercise(_ context.Context, e *models.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.exercises[e.ID] = *e
	return nil
}

func (m *memRepo) ExerciseByID(_ context.Context, id uuid.UUID) (models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exercises[id]
	if !ok {
		return models.Exercise{}, fmt.Errorf("exercise %s: %w", id, storage.ErrNotFound)
	}
	return e, nil
}

func (m *memRepo) ExerciseByTitle(_ context.Context, title string) (models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.exercises {
		if strings.EqualFold(e.Title, title) {
			return e, nil
		}
	}
	return models.Exercise{}, fmt.Errorf("exercise %q: %w", title, storage.ErrNotFound)
}

func (m *memRepo) FetchExercises(_ context.Context, bodyPart string) ([]models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Exercise
	for _, e := range m.exercises {
		if bodyPart == "" || e.BodyPart == bodyPart {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) SaveWorkout(_ context.Context, w *models.Workout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if m.scheduled(w.ID) {
		return storage.ErrInUse
	}
	m.workouts[w.ID] = *w
	return nil
}

func (m *memRepo) FetchWorkouts(_ context.Context) ([]models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Workout
	for _, w := range m.workouts {
		out = append(out, w)
	}
	return out, nil
}

func (m *memRepo) FetchWorkout(_ context.Context, id uuid.UUID) (*models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if !ok {
		return nil, fmt.Errorf("workout %s: %w", id, storage.ErrNotFound)
	}
	return &w, nil
}

func (m *memRepo) DeleteWorkout(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workouts[id]; !ok {
		return fmt.Errorf("workout %s: %w", id, storage.ErrNotFound)
	}
	if m.scheduled(id) {
		return storage.ErrInUse
	}
	delete(m.workouts, id)
	return nil
}

func (m *memRepo) scheduled(workoutID uuid.UUID) bool {
	for _, s := range m.sessions {
		if s.WorkoutID == workoutID && s.Status == models.StatusScheduled {
			return true
		}
	}
	return false
}

func (m *memRepo) SaveSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveSession != nil {
		return m.failSaveSession
	}
	m.sessions[s.ID] = *s.Clone()
	return nil
}

func (m *memRepo) FetchSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	return s.Clone(), nil
}

func (m *memRepo) FetchSessionsFor(_ context.Context, clientID uuid.UUID) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionsFor(clientID), nil
}

func (m *memRepo) sessionsFor(clientID uuid.UUID) []models.Session {
	var out []models.Session
	for _, s := range m.sessions {
		if s.ClientID == clientID {
			out = append(out, *s.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.Session) int { return a.Date.Compare(b.Date) })
	return out
}

func (m *memRepo) DeleteSession(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	delete(m.sessions, id)
	return nil
}

func (m *memRepo) SaveFitScore(_ context.Context, clientID uuid.UUID, fs models.FitScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[clientID] = fs
	return nil
}

func (m *memRepo) FetchFitScore(_ context.Context, clientID uuid.UUID) (*models.FitScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fs, ok := m.scores[clientID]
	if !ok {
		return nil, fmt.Errorf("fit score %s: %w", clientID, storage.ErrNotFound)
	}
	return &fs, nil
}

func (m *memRepo) SaveNutritionLog(_ context.Context, l *models.NutritionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uuid.New()
	m.nutrition = append(m.nutrition, *l)
	return nil
}

func (m *memRepo) FetchNutritionLogs(_ context.Context, clientID uuid.UUID, since time.Time) ([]models.NutritionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.NutritionLog
	for _, l := range m.nutrition {
		if l.ClientID == clientID && !l.Date.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memRepo) SaveLifestyleLog(_ context.Context, l *models.LifestyleLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uuid.New()
	m.lifestyle = append(m.lifestyle, *l)
	return nil
}

func (m *memRepo) FetchLifestyleLogs(_ context.Context, clientID uuid.UUID, since time.Time) ([]models.LifestyleLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LifestyleLog
	for _, l := range m.lifestyle {
		if l.ClientID == clientID && !l.Date.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}
