// Package server exposes the fetch, store and news operations over HTTP.
// Routing and envelopes live here; every decision about caching, fetching
// and degradation belongs to the refresh coordinator.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sw33tLie/liquifeed/internal/utils"
	"github.com/sw33tLie/liquifeed/pkg/records"
	"github.com/sw33tLie/liquifeed/pkg/refresh"
	"github.com/sw33tLie/liquifeed/pkg/snapcache"
	"github.com/sw33tLie/liquifeed/pkg/storage"
)

type Server struct {
	Coordinator *refresh.Coordinator
	Store       *storage.DB
	Cache       *snapcache.Cache
	Games       []string
	Username    string
	Password    string
	UploadsDir  string
}

// Config carries the server's dependencies. Coordinator and Store are
// required; empty credentials leave the admin routes open.
type Config struct {
	Coordinator *refresh.Coordinator
	Store       *storage.DB
	Cache       *snapcache.Cache
	Games       []string
	Username    string
	Password    string
	UploadsDir  string
}

func New(cfg Config) *Server {
	return &Server{
		Coordinator: cfg.Coordinator,
		Store:       cfg.Store,
		Cache:       cfg.Cache,
		Games:       cfg.Games,
		Username:    cfg.Username,
		Password:    cfg.Password,
		UploadsDir:  cfg.UploadsDir,
	}
}

// Router builds the full route tree. Split out from Start so tests can
// drive it with httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/api/games", s.handleGames)

	r.Post("/api/tournaments", s.handleTournaments)
	r.Post("/api/matches", s.matchesHandler(records.KindMatches))
	r.Post("/api/ewc/matches", s.matchesHandler(records.KindEWCMatches))
	r.Post("/api/teams", s.handleTeams)
	r.Post("/api/events", s.handleEvents)

	r.Route("/api/news", func(r chi.Router) {
		r.Get("/", s.handleListNews)
		r.Get("/{id}", s.handleGetNews)
		r.Post("/", s.basicAuth(s.handleCreateNews))
		r.Put("/{id}", s.basicAuth(s.handleUpdateNews))
		r.Delete("/{id}", s.basicAuth(s.handleDeleteNews))
	})

	r.Post("/api/admin/reset", s.basicAuth(s.handleReset))

	return r
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		utils.Log.Infof("Listening on %s", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		utils.Log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
