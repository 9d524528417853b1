// Package server assembles the HTTP server: middleware chain, routes and
// graceful shutdown.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paranganicu/bma-opticas/config"
	"github.com/Paranganicu/bma-opticas/handlers"
	"github.com/Paranganicu/bma-opticas/interfaces"
	"github.com/Paranganicu/bma-opticas/logging"
	"github.com/Paranganicu/bma-opticas/metrics"
)

// Server wraps the http.Server with its router and dependencies.
type Server struct {
	server  *http.Server
	router  chi.Router
	handler *handlers.Handler
	checker interfaces.HealthChecker
	config  *config.Config
}

// New builds the server with its middleware and routes configured.
func New(cfg *config.Config, handler *handlers.Handler, checker interfaces.HealthChecker) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:  router,
		handler: handler,
		checker: checker,
		config:  cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.Middleware)
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(RateLimitMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Post("/ventas", s.handler.SubmitSale)
	s.router.Get("/ventas/recientes", s.handler.RecentSales)
	s.router.Get("/pacientes", s.handler.ListPatients)
	s.router.Get("/pacientes/{rut}", s.handler.GetPatient)
	s.router.Get("/pacientes/{rut}/receta", s.handler.DownloadReceipt)
	s.router.Get("/ledger/{pageNumber}", s.handler.PagedLedger)
	s.router.Get("/reportes", s.handler.Report)
	s.router.Get("/health", s.healthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// healthCheck serves the health snapshot.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, err := s.checker.HealthCheck()
	if err != nil {
		handlers.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Degraded mode is a visible warning, not an outage; always 200.
	details["status"] = status
	handlers.RespondWithJSON(w, http.StatusOK, details)
}

// Start starts listening. Blocks until the server stops.
func (s *Server) Start() error {
	logging.Info("Starting server", "address", s.config.Address, "port", s.config.Port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server, forcing a close when the
// graceful path fails.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
