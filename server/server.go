// Package server is the admin gateway: it authenticates back-office staff
// against the platform API, keeps their session in the persisted store,
// gates every /admin route through the role table, and proxies permitted
// requests upstream through the authenticated API client.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/saptapadi/admin-gateway/apiclient"
	"github.com/saptapadi/admin-gateway/guard"
	"github.com/saptapadi/admin-gateway/internal/config"
	"github.com/saptapadi/admin-gateway/masters"
	"github.com/saptapadi/admin-gateway/session"
)

type Server struct {
	config  config.Config
	store   session.Store
	api     *apiclient.Client
	masters *masters.Client
	router  chi.Router
	logger  zerolog.Logger
}

func New(cfg config.Config, store session.Store, logger zerolog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("[server.New] session store is required")
	}

	api, err := apiclient.New(cfg.GetUpstreamBaseURL(), store,
		apiclient.WithRefreshPath(cfg.GetRefreshPath()),
		apiclient.WithLogger(logger),
		apiclient.WithOnAuthFailure(func() {
			logger.Warn().
				Str("login_route", cfg.GetLoginRoute()).
				Msg("session invalidated, re-login required")
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[server.New] creating api client")
	}

	s := &Server{
		config:  cfg,
		store:   store,
		api:     api,
		masters: masters.New(api, cfg.GetMastersCacheTTL()),
		router:  chi.NewRouter(),
		logger:  logger,
	}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	// Reference data is public on the platform API, so it sits outside the
	// admin guard. Served from the TTL cache.
	r.Get("/masters/{masterType}", s.handleMasters)

	r.Route("/admin", func(r chi.Router) {
		// The menu is available to every authenticated admin; the guarded
		// group below handles per-area access.
		r.Get("/menu", s.handleMenu)

		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(s.store, guard.Options{
				LoginRoute: s.config.GetLoginRoute(),
				AdminHome:  s.config.GetAdminHomeRoute(),
				Logger:     s.logger,
			}))
			r.HandleFunc("/*", s.handleProxy)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
