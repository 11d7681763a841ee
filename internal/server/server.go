package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/claude/repcoach/internal/clock"
	"github.com/claude/repcoach/internal/metrics"
	"github.com/claude/repcoach/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	repo     Repository
	drafts   session.DraftStore
	engines  *session.Registry
	metrics  *metrics.Manager
	gatherer prometheus.Gatherer
	clock    clock.Clock
	whois    WhoIser
	mcp      http.Handler
	log      *slog.Logger
	apiKey   string

	shortRest  time.Duration
	normalRest time.Duration

	once   sync.Once
	router chi.Router
}

// New creates a new Server.
func New(repo Repository, engines *session.Registry, apiKey string, log *slog.Logger) *Server {
	return &Server{
		repo:       repo,
		engines:    engines,
		clock:      clock.New(),
		log:        log,
		apiKey:     apiKey,
		shortRest:  session.DefaultShortRest,
		normalRest: session.DefaultNormalRest,
	}
}

// SetDrafts sets where running sessions are checkpointed.
func (s *Server) SetDrafts(d session.DraftStore) { s.drafts = d }

// SetMetrics enables the collectors in m and serves g at /metrics.
func (s *Server) SetMetrics(m *metrics.Manager, g prometheus.Gatherer) {
	s.metrics = m
	s.gatherer = g
}

// SetClock replaces the wall clock used by new engines.
func (s *Server) SetClock(c clock.Clock) { s.clock = c }

// SetRestDurations sets the superset and normal between-exercise rests.
func (s *Server) SetRestDurations(short, normal time.Duration) {
	s.shortRest = short
	s.normalRest = normal
}

// SetTailscale resolves the caller's tailnet identity for each request.
func (s *Server) SetTailscale(w WhoIser) { s.whois = w }

// SetMCP serves an MCP transport at /mcp.
func (s *Server) SetMCP(h http.Handler) { s.mcp = h }

// ServeHTTP implements http.Handler. Routes are built on the first request,
// so all setters must be called before serving.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.once.Do(s.routes)
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(RequestLogging(s.log))
	if s.metrics != nil {
		r.Use(RequestMetrics(s.metrics))
	}
	r.Use(CORS)
	if s.whois != nil {
		r.Use(TailscaleIdentity(s.whois, s.log))
	} else {
		r.Use(DevIdentity)
	}

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.mcp != nil {
		r.Handle("/mcp", s.mcp)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Reads (no auth, tsnet handles access)
		r.Get("/me", s.handleMe)
		r.Get("/clients", s.handleListClients)
		r.Get("/clients/{id}", s.handleGetClient)
		r.Get("/clients/{id}/sessions", s.handleClientSessions)
		r.Get("/clients/{id}/fitscore", s.handleFitScore)
		r.Get("/exercises", s.handleListExercises)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/sessions/{id}/state", s.handleSessionState)
		r.Get("/score-categories", s.handleScoreCategories)

		// Writes (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))

			r.Post("/clients", s.handleCreateClient)
			r.Delete("/clients/{id}", s.handleDeleteClient)
			r.Put("/clients/{id}/measurements", s.handleUpdateMeasurements)
			r.Post("/clients/{id}/nutrition", s.handleNutritionLog)
			r.Post("/clients/{id}/lifestyle", s.handleLifestyleLog)

			r.Post("/exercises", s.handleCreateExercise)
			r.Post("/workouts", s.handleCreateWorkout)
			r.Delete("/workouts/{id}", s.handleDeleteWorkout)

			r.Post("/sessions", s.handleCreateSession)
			r.Delete("/sessions/{id}", s.handleDeleteSession)
			r.Post("/sessions/{id}/start", s.handleStart)
			r.Post("/sessions/{id}/complete-set", s.sessionOp((*session.Engine).CompleteSet))
			r.Post("/sessions/{id}/advance", s.sessionOp((*session.Engine).AdvanceExercise))
			r.Post("/sessions/{id}/skip-rest", s.sessionOp((*session.Engine).SkipRest))
			r.Post("/sessions/{id}/previous-set", s.sessionOp((*session.Engine).PreviousSet))
			r.Post("/sessions/{id}/pause", s.sessionOp((*session.Engine).Pause))
			r.Post("/sessions/{id}/resume", s.sessionOp((*session.Engine).Resume))
			r.Put("/sessions/{id}/set", s.handleUpdateSet)
			r.Post("/sessions/{id}/jump", s.handleJump)
			r.Put("/sessions/{id}/ratings", s.handleRate)
			r.Post("/sessions/{id}/save", s.handleSave)
			r.Post("/sessions/{id}/finalize", s.handleFinalize)
			r.Post("/sessions/{id}/cancel", s.handleCancel)
		})
	})
	s.router = r
}
