package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-michi/michi"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"

	"github.com/shipenv/shipenv/server/middleware"
	"github.com/shipenv/shipenv/server/stores"
)

const (
	maxHeaderBytes    = 1 << 20
	readTimeout       = 30 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 30 * time.Second
	defaultRateLimit  = time.Second / 5
	defaultRateBurst  = 20
)

// Server wires the sync API handlers, middleware and HTTP plumbing together.
type Server struct {
	Router *michi.Router
	server *http.Server
	logger *slog.Logger
}

// Options configures a Server.
type Options struct {
	Logger *slog.Logger
	// Validate resolves Bearer tokens to GitHub users. Defaults to the live
	// GitHub API; swappable in tests.
	Validate middleware.TokenValidator
	// UserHasRoleInRepo checks repo roles on project creation. Defaults to
	// the live GitHub API.
	UserHasRoleInRepo UserHasRoleInRepoFunc
	// RateLimit and RateBurst override the default per-IP rate limit.
	RateLimit rate.Limit
	RateBurst int
}

// NewServer builds the full middleware and routing stack around the given
// stores.
func NewServer(store stores.ProfileStore, userStore stores.UserStore, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Validate == nil {
		opts.Validate = middleware.ValidateGitHubToken
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = rate.Every(defaultRateLimit)
	}
	if opts.RateBurst == 0 {
		opts.RateBurst = defaultRateBurst
	}

	handler := NewHandler(store, userStore, opts.Logger, opts.UserHasRoleInRepo)
	limiter := middleware.NewRateLimiter(opts.Logger, middleware.IPAddressKeyFunc, opts.RateLimit, opts.RateBurst,
		middleware.WithSkipper(func(r *http.Request) bool { return r.URL.Path == "/healthz" }))

	router := michi.NewRouter()
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.WithLogger(opts.Logger))
	router.Use(middleware.WithCORS())
	router.Use(limiter.Limit)

	router.HandleFunc("GET /healthz", handler.Healthz)

	authed := middleware.WithGitHubAuth(opts.Validate)
	router.Handle("POST /api/v1/projects", authed(http.HandlerFunc(handler.CreateProject)))
	router.Handle("GET /api/v1/projects/{org}/{repo}/profiles", authed(http.HandlerFunc(handler.ProfileList)))
	router.Handle("PUT /api/v1/projects/{org}/{repo}/profiles/{env}", authed(http.HandlerFunc(handler.ProfilePut)))
	router.Handle("GET /api/v1/projects/{org}/{repo}/profiles/{env}", authed(http.HandlerFunc(handler.ProfileGet)))
	router.Handle("DELETE /api/v1/projects/{org}/{repo}/profiles/{env}", authed(http.HandlerFunc(handler.ProfileDelete)))
	router.Handle("POST /api/v1/users/register", authed(http.HandlerFunc(handler.HandleUserRegister)))

	srv := &http.Server{
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}

	return &Server{
		Router: router,
		server: srv,
		logger: opts.Logger,
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// ListenAndServe starts the server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.server.Addr = addr
	s.logger.Info("sync server listening", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug("shutting down server")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("error shutting down server", "error", err)
		return err
	}
	return nil
}
