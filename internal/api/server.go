package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Publisher hands events to the in-process broker.
type Publisher interface {
	Publish(topic string, msg any) error
}

// healthCheckTimeout bounds each dependency check run by GET /health.
const healthCheckTimeout = 2 * time.Second

// Status is the hub status reported by GET /health.
type Status struct {
	Bootstrap  string `json:"bootstrap"`
	Paired     bool   `json:"paired"`
	Dispatcher bool   `json:"dispatcher_running"`
}

// HealthChecker is a dependency whose liveness GET /health reports, such as
// the database, the queue transport or InfluxDB.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config config.APIConfig
	Logger *logging.Logger
	Bus    Publisher

	// Status reports bootstrap and dispatcher state. Optional.
	Status func(ctx context.Context) Status

	// Checks are run on every GET /health, keyed by the name reported in
	// the response. A failing check turns the response into 503.
	Checks map[string]HealthChecker

	Version string
}

// Server is the hub's HTTP server.
//
// It is created with New, started with Start and shut down with Stop.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	bus     Publisher
	status  func(ctx context.Context) Status
	checks  map[string]HealthChecker
	version string

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a new API server with the given dependencies.
//
// Parameters:
//   - deps: Logger and Bus are required; Status and Checks are optional
//
// Returns:
//   - *Server: Server ready to Start
//   - error: If a required dependency is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("broker is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		bus:     deps.Bus,
		status:  deps.Status,
		checks:  deps.Checks,
		version: deps.Version,
	}, nil
}

// Name identifies the server in hub lifecycle logs.
func (s *Server) Name() string { return "api" }

// Start binds the listen address and serves in a background goroutine.
// Binding happens before Start returns, so a port already in use is
// reported to the caller.
//
// Parameters:
//   - ctx: Unused; the server runs until Stop
//
// Returns:
//   - error: If the server is already started or the address cannot be bound
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("listening on %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}
	s.server = srv
	s.listener = ln

	s.logger.Info("API server listening", "address", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests. Calling Stop on a server that never started is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
