// Package api provides the HTTP surface of campus-core.
//
// It exposes registration, login and principal lookup, the audit trail,
// identity administration, health and Prometheus metrics. Every request
// passes through the authentication Gate, which turns a bearer token into
// a request-scoped auth.Principal or rejects the request.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teleinformatics/campus-core/internal/audit"
	"github.com/teleinformatics/campus-core/internal/auth"
	"github.com/teleinformatics/campus-core/internal/infrastructure/config"
	"github.com/teleinformatics/campus-core/internal/infrastructure/logging"
)

// defaultShutdownTimeout applies when the config leaves it unset.
const defaultShutdownTimeout = 10 * time.Second

// Credentials registers and logs in identities. *auth.Authenticator
// satisfies it together with PrincipalResolver.
type Credentials interface {
	Register(ctx context.Context, email, password string) (*auth.Result, error)
	Login(ctx context.Context, email, password string) (*auth.Result, error)
	PrincipalResolver
}

// IdentityAdmin performs administrative changes to identities.
// *auth.SQLiteCredentialStore satisfies it.
type IdentityAdmin interface {
	FindByID(ctx context.Context, id string) (*auth.Identity, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
	GrantRole(ctx context.Context, id string, role auth.Role) error
	Delete(ctx context.Context, id string) error
}

// HealthChecker is implemented by every infrastructure client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	RateLimit   config.RateLimitConfig
	Logger      *logging.Logger
	Credentials Credentials
	Tokens      SubjectExtractor

	// Optional.
	Identities   IdentityAdmin
	Roles        auth.RoleCatalog
	AuditRepo    audit.Repository
	Events       auth.EventSink
	Registry     *prometheus.Registry
	HealthChecks map[string]HealthChecker
	Version      string
	Now          func() time.Time
}

// Server is the HTTP API server for campus-core.
type Server struct {
	cfg          config.APIConfig
	logger       *logging.Logger
	credentials  Credentials
	identities   IdentityAdmin
	roles        auth.RoleCatalog
	auditRepo    audit.Repository
	healthChecks map[string]HealthChecker
	version      string
	now          func() time.Time

	gate      *Gate
	responder *Responder
	limiter   *rateLimiter
	metrics   *httpMetrics
	gatherer  prometheus.Gatherer

	handler http.Handler
	server  *http.Server
	cancel  context.CancelFunc // stops background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The router is built immediately so Handler can be used without Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Credentials == nil {
		return nil, fmt.Errorf("credentials service is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token codec is required")
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics, err := newHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("registering HTTP metrics: %w", err)
	}

	s := &Server{
		cfg:          deps.Config,
		logger:       deps.Logger,
		credentials:  deps.Credentials,
		identities:   deps.Identities,
		roles:        deps.Roles,
		auditRepo:    deps.AuditRepo,
		healthChecks: deps.HealthChecks,
		version:      deps.Version,
		now:          now,
		responder:    NewResponder(now),
		metrics:      metrics,
		gatherer:     registry,
	}
	s.gate = NewGate(deps.Tokens, deps.Credentials, s.responder, deps.Events, deps.Logger.Logger)
	if deps.RateLimit.Enabled {
		s.limiter = newRateLimiter(deps.RateLimit, now)
	}
	s.handler = s.buildRouter()

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for HTTP connections in a background goroutine.
// The listener is bound before Start returns, so a port in use is
// reported here.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.limiter != nil {
		go s.limiter.sweepLoop(srvCtx)
	}

	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)),
		Handler:           s.handler,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to the
// configured shutdown timeout for in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	timeout := time.Duration(s.cfg.Timeouts.Shutdown) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
