package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/setforge/internal/persist"
	"github.com/claude/setforge/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	active *ActiveHost
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured. The sync argument
// handles saves for sessions hosted by the active-workout API.
func New(db *storage.DB, sync *persist.Sync, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		active: NewActiveHost(db, sync, log),
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown stops the tickers of all hosted workouts.
func (s *Server) Shutdown() {
	s.active.Shutdown()
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		// Session store
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Put("/sessions/{id}/progress", s.handleSaveProgress)
		r.Get("/history", s.handleSetHistory)
		r.Get("/volume", s.handleVolumeSummary)

		// Hosted active workouts
		r.Route("/active/{id}", func(r chi.Router) {
			r.Post("/", s.handleStartWorkout)
			r.Get("/", s.handleWorkoutState)
			r.Post("/sets/complete", s.handleCompleteSet)
			r.Post("/sets", s.handleAddSet)
			r.Patch("/sets/{n}", s.handleUpdateSet)
			r.Delete("/sets/{n}", s.handleRemoveSet)
			r.Post("/sets/{n}/reset", s.handleResetSet)
			r.Post("/select", s.handleSelectSet)
			r.Post("/rest/skip", s.handleSkipRest)
			r.Post("/rest/duration", s.handleRestDuration)
			r.Post("/method", s.handleSetMethod)
			r.Post("/finish", s.handleFinishWorkout)
			r.Post("/complete", s.handleCompleteWorkout)
		})
	})
}
