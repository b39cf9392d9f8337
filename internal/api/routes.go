package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avsim/atc-engine/internal/atc"
	"github.com/avsim/atc-engine/internal/config"
	"github.com/avsim/atc-engine/internal/storage/sqlite"
	"github.com/avsim/atc-engine/internal/websocket"
	"github.com/avsim/atc-engine/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(engine *atc.Service, transcript *sqlite.TranscriptStorage, wsServer *websocket.Server, sim SimControl, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(engine, transcript, wsServer, sim, log),
		middleware: NewMiddleware(log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// ATC session routes
		router.Post("/atc/tune", r.handler.TuneIn)
		router.Post("/atc/message", r.handler.PilotMessage)
		router.Put("/atc/position", r.handler.SetPosition)
		router.Get("/atc/session", r.handler.GetSession)
		router.Get("/atc/nearest", r.handler.GetNearest)

		// Transcript routes
		router.Get("/transcripts", r.handler.GetTranscripts)

		// Simulation routes
		router.Post("/simulation/release", r.handler.ReleaseSimAircraft)

		// WebSocket route
		router.Get("/ws", r.handler.HandleWebSocket)

		// Health check
		router.Get("/health", r.handler.GetHealth)
	})

	return router
}
