package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/httputil"
	"github.com/platinummonkey/vetrina/pkg/middleware"
	"github.com/platinummonkey/vetrina/pkg/observability"
	"github.com/platinummonkey/vetrina/pkg/payment"
	"github.com/platinummonkey/vetrina/pkg/session"
	"github.com/platinummonkey/vetrina/pkg/sso"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// maxBodyBytes bounds request bodies; product images arrive base64
// encoded in JSON, so this is the effective image size cap too
const maxBodyBytes = 10 << 20

// ServerOptions carries the collaborators the server needs
type ServerOptions struct {
	Store    *storage.Store
	Registry *session.Registry
	Tokens   *auth.TokenManager
	Log      *logrus.Logger
	Metrics  *observability.Metrics
	Payments payment.Provider
	Health   *observability.HealthChecker

	// SSO is optional; nil disables the /api/sso routes
	SSO *sso.Authenticator

	// LoginLimiter wraps the credential submission route; nil means
	// no throttling (tests)
	LoginLimiter func(http.Handler) http.Handler

	TokenValidity time.Duration
	SecureCookies bool

	// PromRegistry enables the /metrics scrape endpoint when set
	PromRegistry *prometheus.Registry
}

// Server is the HTTP application
type Server struct {
	opts     ServerOptions
	resolver *session.Resolver
	router   *mux.Router
}

// NewServer wires handlers, middleware, and the page gate into a router
func NewServer(opts ServerOptions) *Server {
	if opts.Log == nil {
		opts.Log = logrus.New()
	}
	if opts.Payments == nil {
		opts.Payments = payment.AcceptAllProvider{}
	}
	if opts.TokenValidity == 0 {
		opts.TokenValidity = auth.DefaultTokenValidity
	}

	s := &Server{
		opts:     opts,
		resolver: session.NewResolver(opts.Tokens, opts.Registry, opts.Store.Users()),
	}
	s.setupRoutes()
	return s
}

// Router returns the fully configured handler
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	router := mux.NewRouter()

	authmw := middleware.NewAuthMiddleware(s.resolver, s.opts.Log)
	gate := middleware.NewGate(s.opts.Tokens)

	router.Use(httputil.RequestIDMiddleware)
	router.Use(httputil.LoggingMiddleware(s.opts.Log))
	router.Use(httputil.RecoveryMiddleware(s.opts.Log))
	if s.opts.Metrics != nil {
		router.Use(s.opts.Metrics.Middleware)
	}
	router.Use(httputil.MaxBytesMiddleware(maxBodyBytes))
	router.Use(authmw.Handler)
	router.Use(gate.Handler)

	// Infra endpoints, bypassed by the gate
	if s.opts.Health != nil {
		router.HandleFunc("/healthz", s.opts.Health.Liveness).Methods("GET")
		router.HandleFunc("/readyz", s.opts.Health.Readiness).Methods("GET")
	}
	if s.opts.PromRegistry != nil {
		router.Handle("/metrics", observability.MetricsHandler(s.opts.PromRegistry)).Methods("GET")
	}

	api := router.PathPrefix("/api").Subrouter()

	authHandlers := NewAuthHandlers(s.opts.Store.Users(), s.opts.Registry, s.opts.Tokens, s.opts.Log, s.opts.Metrics, s.opts.TokenValidity, s.opts.SecureCookies)
	authHandlers.loginLimiter = s.opts.LoginLimiter
	authHandlers.RegisterRoutes(api)

	NewProductHandlers(s.opts.Store.Products(), s.opts.Log, s.opts.Metrics).RegisterRoutes(api)
	NewUserHandlers(s.opts.Store.Users()).RegisterRoutes(api)
	NewCartHandlers(s.opts.Store.Carts(), s.opts.Metrics).RegisterRoutes(api)
	NewOrderHandlers(s.opts.Store.Orders(), s.opts.Store.Carts(), s.opts.Payments, s.opts.Log, s.opts.Metrics).RegisterRoutes(api)
	NewDashboardHandlers(s.opts.Store).RegisterRoutes(api)

	if s.opts.SSO != nil {
		NewSSOHandlers(s.opts.SSO, s.opts.Store.Users(), s.opts.Registry, s.opts.Tokens, s.opts.Log, s.opts.TokenValidity, s.opts.SecureCookies).RegisterRoutes(api)
	}

	registerPages(router)

	s.router = router
}
