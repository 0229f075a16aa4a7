// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and
// routes. It is the composition root: every dependency in the app is
// assembled here (or in config), rather than scattered across the codebase.
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "load config, start the server")
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/AnujPatil110377/job-pilot/internal/auth"
	"github.com/AnujPatil110377/job-pilot/internal/config"
	"github.com/AnujPatil110377/job-pilot/internal/filestore"
	"github.com/AnujPatil110377/job-pilot/internal/handler"
	"github.com/AnujPatil110377/job-pilot/internal/middleware"
	sqliteRepo "github.com/AnujPatil110377/job-pilot/internal/repository/sqlite"
	"github.com/AnujPatil110377/job-pilot/internal/service"
)

// Server owns the router and every long-lived resource behind it. The
// database connection is closed during graceful shutdown, after in-flight
// requests have drained.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions *scs.SessionManager
}

// New assembles the full dependency chain:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services. The handler never touches the
// database directly and the service never touches HTTP.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: auth.NewSessionManager(cfg.IsProduction()),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /auth/password/register          → password registration
//	POST   /auth/password/login             → password login
//	POST   /auth/logout                     → destroy session
//	GET    /auth/{provider}                 → start OAuth (github, google)
//	GET    /auth/{provider}/callback        → finish OAuth
//	GET    /api/me                          → current user            [auth]
//	GET    /api/jobs                        → list/search postings
//	GET    /api/jobs/{id}                   → single posting
//	POST   /api/jobs                        → create posting          [auth]
//	PUT    /api/jobs/{id}                   → update posting          [auth]
//	DELETE /api/jobs/{id}                   → delete posting          [auth]
//	GET    /api/profile                     → own profile             [auth]
//	PUT    /api/profile                     → edit profile            [auth]
//	POST   /api/profile/resume              → upload resume           [auth]
//	POST   /api/profile/saved/{jobID}       → save job                [auth]
//	DELETE /api/profile/saved/{jobID}       → unsave job              [auth]
//	POST   /api/profile/applications/{jobID} → track application      [auth]
//	GET    /uploads/*                       → logos and resumes
//
// MIDDLEWARE ORDER MATTERS:
// RequestID and RealIP first so the logger sees them; Recoverer before the
// logger so panics still produce a log line with a 500; CORS before the
// session loader so preflights never touch session state; LoadAndSave
// outermost-but-one around everything that reads or writes sessions.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The SPA runs on another origin; credentials (the session cookie) must
	// be allowed through, which rules out the wildcard origin.
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{s.config.ClientOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler)

	s.router.Use(s.sessions.LoadAndSave)

	// === DEPENDENCY WIRING ===
	users := s.db.Users()
	jobs := s.db.Jobs()

	files, err := filestore.NewDisk(s.config.UploadDir, "/uploads")
	if err != nil {
		return fmt.Errorf("creating file store: %w", err)
	}

	passwords := auth.NewPasswordService()
	binder := auth.NewSessionBinder(s.sessions, users)

	providers := map[string]auth.Provider{}
	if s.config.GitHubClientID != "" {
		providers["github"] = auth.NewGitHubProvider(
			s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}
	if s.config.GoogleClientID != "" {
		providers["google"] = auth.NewGoogleProvider(
			s.config.GoogleClientID, s.config.GoogleClientSecret, s.config.GoogleCallbackURL)
	}

	// The state service is only needed for OAuth. Without providers the
	// server still runs with password auth alone; with providers a missing
	// STATE_SECRET is a misconfiguration, not something to limp past.
	var state *auth.StateService
	if len(providers) > 0 {
		state, err = auth.NewStateService(s.config.StateSecret)
		if err != nil {
			return fmt.Errorf("creating state service: %w", err)
		}
	} else {
		s.logger.Warn("no OAuth providers configured — social login is disabled")
	}

	authService := service.NewAuthService(users, passwords, s.logger)
	jobService := service.NewJobService(jobs, s.logger)
	profileService := service.NewProfileService(users, jobs, s.logger)

	authHandler := handler.NewAuthHandler(authService, binder, state, providers, handler.AuthConfig{
		ClientOrigin:    s.config.ClientOrigin,
		FailureURL:      s.config.AuthFailureURL,
		SynthesizeEmail: s.config.OAuthSynthesizeEmail,
	}, s.logger)
	jobHandler := handler.NewJobHandler(jobService, files, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, files, s.logger)

	// === STATIC UPLOADS ===
	fileServer := http.FileServer(http.Dir(s.config.UploadDir))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	// === AUTH ROUTES (public) ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/password/register", authHandler.HandleRegister)
		r.Post("/password/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/{provider}", authHandler.HandleOAuthStart)
		r.Get("/{provider}/callback", authHandler.HandleOAuthCallback)
	})

	// === API ROUTES ===
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/jobs", jobHandler.HandleList)
		r.Get("/jobs/{id}", jobHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(binder.RequireUser)

			r.Get("/me", authHandler.HandleMe)

			r.Post("/jobs", jobHandler.HandleCreate)
			r.Put("/jobs/{id}", jobHandler.HandleUpdate)
			r.Delete("/jobs/{id}", jobHandler.HandleDelete)

			r.Get("/profile", profileHandler.HandleGet)
			r.Put("/profile", profileHandler.HandleUpdate)
			r.Post("/profile/resume", profileHandler.HandleResumeUpload)
			r.Post("/profile/saved/{jobID}", profileHandler.HandleSaveJob)
			r.Delete("/profile/saved/{jobID}", profileHandler.HandleUnsaveJob)
			r.Post("/profile/applications/{jobID}", profileHandler.HandleTrackApplication)
		})
	})

	return nil
}

// Start runs the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
