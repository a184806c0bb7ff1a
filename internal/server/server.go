// Package server implements the HTTP surface over the conversation
// platform: session authentication, the threaded-conversation REST API,
// the chat-completions endpoint, and the per-conversation SSE stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vannadii/rustygpt-go/internal/assistant"
	"github.com/vannadii/rustygpt-go/internal/authsession"
	"github.com/vannadii/rustygpt-go/internal/config"
	"github.com/vannadii/rustygpt-go/internal/convo"
	"github.com/vannadii/rustygpt-go/internal/eventbus"
	"github.com/vannadii/rustygpt-go/internal/middleware"
	"github.com/vannadii/rustygpt-go/internal/provider"
	"github.com/vannadii/rustygpt-go/internal/streamsup"
)

// Server is the HTTP server wiring the full request pipeline to the
// conversation platform's service layer.
type Server struct {
	cfg *config.Config

	router  *chi.Mux
	httpSrv *http.Server

	authority  *authsession.Authority
	convo      *convo.Service
	hub        *eventbus.Hub
	supervisor *streamsup.Supervisor
	providers  *provider.Registry
	pipeline   *assistant.Pipeline
}

// New wires a Server over an already-constructed service layer and
// installs the middleware chain and route table.
func New(cfg *config.Config, authority *authsession.Authority, convoSvc *convo.Service, hub *eventbus.Hub, supervisor *streamsup.Supervisor, providers *provider.Registry, pipeline *assistant.Pipeline) *Server {
	s := &Server{
		cfg:        cfg,
		router:     chi.NewRouter(),
		authority:  authority,
		convo:      convoSvc,
		hub:        hub,
		supervisor: supervisor,
		providers:  providers,
		pipeline:   pipeline,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware installs the request pipeline: infrastructure concerns
// first, authentication once a request is known to be well-formed, CSRF
// last; the CSRF check compares against the cookie sent with the request.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.RealIP)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", s.cfg.CSRF.HeaderName},
		ExposedHeaders:   []string{"X-Request-ID", "X-Session-Rotated"},
		AllowCredentials: s.cfg.CORS.AllowCredentials,
		MaxAge:           300,
	}))

	s.router.Use(middleware.SecurityHeaders)
	s.router.Use(middleware.RateLimit(s.cfg.RateLimit))

	// Authenticate and EnforceCSRF are NOT installed globally: POST
	// /auth/login has no session yet to authenticate. setupRoutes applies
	// both, in order, to every route group but the public auth routes.
}

// protected wraps a route group with session authentication followed by
// CSRF enforcement, per this package's middleware ordering convention.
func (s *Server) protected(r chi.Router) {
	r.Use(middleware.Authenticate(s.authority, s.cfg.Cookie))
	r.Use(middleware.EnforceCSRF(s.cfg.CSRF))
}

// Start runs the HTTP listener, blocking until it returns (ListenAndServe
// semantics - http.ErrServerClosed on graceful shutdown).
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router exposes the chi router for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

const requestTimeout = 60 * time.Second
