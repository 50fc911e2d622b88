package devconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/nerrad567/gray-logic-hub/internal/procedure"
)

// Procedure names and broker topics served by the configuration adapter.
const (
	ProcGet      = "configuration/get"
	ProcSet      = "configuration/set"
	ProcList     = "configuration/list"
	TopicChanged = "configuration/changed"
)

// DefaultInterval is reported for devices with no stored configuration.
const DefaultInterval = 60

// Logger is the logging interface used by the Server.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Registrar is the part of the procedure registry the server needs.
type Registrar interface {
	Register(name string, handler procedure.Handler)
	Unregister(name string)
}

// Publisher is the part of the broker the server needs.
type Publisher interface {
	Publish(topic string, msg any) error
}

// Server exposes device configuration as procedures.
type Server struct {
	repo   Repository
	procs  Registrar
	bus    Publisher
	logger Logger
}

// NewServer creates the configuration adapter.
func NewServer(repo Repository, procs Registrar, bus Publisher) *Server {
	return &Server{repo: repo, procs: procs, bus: bus, logger: noopLogger{}}
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(logger Logger) {
	s.logger = logger
}

// Name identifies the adapter in lifecycle logs.
func (s *Server) Name() string { return "configuration" }

// Start registers the configuration procedures.
func (s *Server) Start(_ context.Context) error {
	s.procs.Register(ProcGet, s.get)
	s.procs.Register(ProcSet, s.set)
	s.procs.Register(ProcList, s.list)
	return nil
}

// Stop unregisters the configuration procedures.
func (s *Server) Stop() error {
	s.procs.Unregister(ProcGet)
	s.procs.Unregister(ProcSet)
	s.procs.Unregister(ProcList)
	return nil
}

func (s *Server) get(ctx context.Context, args procedure.Args) (any, error) {
	deviceID, err := deviceIDArg(args)
	if err != nil {
		return nil, err
	}

	cfg, err := s.repo.Get(ctx, deviceID)
	if errors.Is(err, ErrNotFound) {
		return Configuration{DeviceID: deviceID, Interval: DefaultInterval}, nil
	}
	if err != nil {
		return nil, err
	}
	return *cfg, nil
}

// list returns every stored configuration. Devices that were never
// configured are not included.
func (s *Server) list(ctx context.Context, _ procedure.Args) (any, error) {
	cfgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if cfgs == nil {
		cfgs = []Configuration{}
	}
	return cfgs, nil
}

func (s *Server) set(ctx context.Context, args procedure.Args) (any, error) {
	deviceID, err := deviceIDArg(args)
	if err != nil {
		return nil, err
	}
	interval, err := intervalArg(args)
	if err != nil {
		return nil, err
	}

	cfg := &Configuration{DeviceID: deviceID, Interval: interval}
	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info("device configuration updated", "device_id", deviceID, "interval", interval)

	if err := s.bus.Publish(TopicChanged, *cfg); err != nil {
		s.logger.Warn("publishing configuration change failed", "device_id", deviceID, "error", err)
	}
	return *cfg, nil
}

func deviceIDArg(args procedure.Args) (string, error) {
	id, ok := args["device_id"].(string)
	if !ok || id == "" {
		return "", ErrInvalidDeviceID
	}
	return id, nil
}

// intervalArg accepts the numeric types produced by Go callers and by JSON
// decoding.
func intervalArg(args procedure.Args) (int, error) {
	var n int64
	switch v := args["interval"].(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v is not a whole number", ErrInvalidInterval, v)
		}
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidInterval, err)
		}
		n = i
	default:
		return 0, ErrInvalidInterval
	}
	if n <= 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidInterval, n)
	}
	return int(n), nil
}
