// Package api assembles the HTTP server: services, gates, routes and
// operational endpoints.
package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/oncoursesbros-sketch/oncourse/pkg/admin"
	"github.com/oncoursesbros-sketch/oncourse/pkg/auth"
	"github.com/oncoursesbros-sketch/oncourse/pkg/cart"
	"github.com/oncoursesbros-sketch/oncourse/pkg/catalog"
	"github.com/oncoursesbros-sketch/oncourse/pkg/config"
	"github.com/oncoursesbros-sketch/oncourse/pkg/httputil"
	"github.com/oncoursesbros-sketch/oncourse/pkg/middleware"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
	"github.com/oncoursesbros-sketch/oncourse/pkg/payments"
	"github.com/oncoursesbros-sketch/oncourse/pkg/progress"
	"github.com/oncoursesbros-sketch/oncourse/pkg/quiz"
	"github.com/oncoursesbros-sketch/oncourse/pkg/users"
)

// paymentDelay is the simulated processor's processing time.
const paymentDelay = 500 * time.Millisecond

// Server owns the router and every handler set.
type Server struct {
	router  *mux.Router
	db      *sql.DB
	logger  *observability.Logger
	metrics *observability.Metrics

	resets *auth.ResetService
}

// NewServer wires services, gates and routes into a ready-to-serve Server.
func NewServer(cfg *config.Config, db *sql.DB, resetMailer auth.ResetMailer, logger *observability.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		db:      db,
		logger:  logger,
		metrics: metrics,
	}

	hasher := auth.NewHasher()
	tokens := auth.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenLifetime)

	authService := auth.NewService(db, hasher, tokens, logger)
	s.resets = auth.NewResetService(db, hasher, resetMailer, logger, cfg.ClientURL, cfg.Auth.ResetTokenLifetime)
	userService := users.NewService(db, logger)
	catalogService := catalog.NewService(db, logger)
	cartService := cart.NewService(db, logger)
	paymentService := payments.NewService(db, payments.NewSimulatedProcessor(paymentDelay), logger, metrics)
	quizService := quiz.NewService(db, logger, metrics)
	progressService := progress.NewService(db, logger)
	adminService := admin.NewService(db, logger)

	requiredGate := middleware.NewAuthMiddleware(tokens, userService, logger, metrics)
	optionalGate := middleware.NewOptionalAuthMiddleware(tokens, userService, logger, metrics)

	s.router.Use(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.CORSMiddleware(cfg.ClientURL),
	)
	if cfg.MetricsEnabled {
		s.router.Use(metrics.Middleware)
		s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	// Open routes: registration, login, reset lifecycle.
	auth.NewHandlers(authService, s.resets, logger, metrics).RegisterRoutes(s.router)

	// Anonymous browsing with purchase flags for logged-in users.
	public := s.router.NewRoute().Subrouter()
	public.Use(optionalGate.Handler)
	catalogHandlers := catalog.NewHandlers(catalogService, logger)
	catalogHandlers.RegisterPublicRoutes(public)

	// Everything below needs a verified user.
	authed := s.router.NewRoute().Subrouter()
	authed.Use(requiredGate.Handler)
	catalogHandlers.RegisterAuthedRoutes(authed)
	users.NewHandlers(userService, logger, cfg.UploadsDir).RegisterRoutes(authed)
	cart.NewHandlers(cartService, logger).RegisterRoutes(authed)
	payments.NewHandlers(paymentService, logger).RegisterRoutes(authed)
	quiz.NewHandlers(quizService, logger).RegisterRoutes(authed)
	progress.NewHandlers(progressService, logger).RegisterRoutes(authed)

	adminRouter := s.router.NewRoute().Subrouter()
	adminRouter.Use(requiredGate.Handler, middleware.RequireAdmin(userService))
	admin.NewHandlers(adminService, logger).RegisterRoutes(adminRouter)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ResetService exposes the password reset service for background sweeps.
func (s *Server) ResetService() *auth.ResetService {
	return s.resets
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.WithError(err).Error("health check failed")
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
