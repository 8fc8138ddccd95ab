package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/domain/channel"
	"github.com/tribler/tsap/service/internal/domain/download"
	"github.com/tribler/tsap/service/internal/domain/torrent"
	"github.com/tribler/tsap/service/internal/environment"
	"github.com/tribler/tsap/service/internal/infrastructure/config"
	"github.com/tribler/tsap/service/internal/infrastructure/logging"
	"github.com/tribler/tsap/service/internal/infrastructure/monitoring"
	"github.com/tribler/tsap/service/internal/infrastructure/tracing"
	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/session"
)

// Stage names a startup step
type Stage string

const (
	StageEnvironment  Stage = "environment"
	StageSession      Stage = "session"
	StageBind         Stage = "bind"
	StageRegistration Stage = "registration"
)

// StartupError reports which startup stage failed
type StartupError struct {
	Stage Stage
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// Deps is what a manager constructor receives
type Deps struct {
	Handle    *session.Handle
	Registrar rpc.Registrar
	Logger    *logging.Logger
	Metrics   *monitoring.Metrics
}

// ManagerFactory constructs one domain manager. Construction registers the
// manager's methods and must not block.
type ManagerFactory struct {
	Name string
	New  func(deps Deps) error
}

// DefaultManagers returns the channel, torrent and download managers in
// construction order.
func DefaultManagers() []ManagerFactory {
	return []ManagerFactory{
		{
			Name: "channel",
			New: func(d Deps) error {
				_, err := channel.NewManager(d.Handle, d.Registrar, d.Logger)
				return err
			},
		},
		{
			Name: "torrent",
			New: func(d Deps) error {
				_, err := torrent.NewManager(d.Handle, d.Registrar, d.Logger)
				return err
			},
		},
		{
			Name: "download",
			New: func(d Deps) error {
				m, err := download.NewManager(d.Handle, d.Registrar, d.Logger)
				if err != nil {
					return err
				}
				m.WithMetrics(d.Metrics)
				return nil
			},
		},
	}
}

// Options customizes New
type Options struct {
	// Managers replaces DefaultManagers when non-nil
	Managers []ManagerFactory
}

// Server is the composition root. It owns the session and the RPC server
// and releases both in Close.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	env     *environment.Environment
	session *session.Session
	rpc     *rpc.Server
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	closeOnce sync.Once
	closeErr  error
}

// New runs the startup sequence: environment, session, bind, registration.
// On failure everything acquired so far is released and a *StartupError
// names the failing stage.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts Options) (_ *Server, err error) {
	managers := opts.Managers
	if managers == nil {
		managers = DefaultManagers()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: monitoring.NewMetrics(),
		tracer:  tracing.New(logger.Named("trace").Logger),
	}
	defer func() {
		if err != nil {
			if closeErr := s.Close(); closeErr != nil {
				logger.Error("Cleanup after failed startup", zap.Error(closeErr))
			}
		}
	}()

	logger.Info("Initializing environment")
	s.env, err = environment.Init(cfg.Environment, logger)
	if err != nil {
		return nil, s.fail(StageEnvironment, err)
	}

	logger.Info("Loading session")
	s.session, err = session.Start(ctx, session.Config{
		StateDir:         s.env.StateDir(),
		DownloadDir:      s.env.DownloadDir(),
		InMemory:         cfg.Session.InMemory,
		SyncWrites:       cfg.Session.SyncWrites,
		ValueLogFileSize: cfg.Session.ValueLogFileSize,
	}, logger)
	if err != nil {
		return nil, s.fail(StageSession, err)
	}

	logger.Info("Binding RPC server", zap.String("addr", cfg.RPC.Addr()))
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	s.rpc, err = rpc.Listen(cfg.RPC, rpc.Options{
		Logger:      logger,
		Metrics:     s.metrics,
		Tracer:      s.tracer,
		RateLimit:   cfg.RateLimit,
		MetricsPath: metricsPath,
		ErrorCodes:  sessionErrorCodes(),
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, s.fail(StageBind, err)
	}

	if err := registerBuiltins(s.rpc, logger, s.env, s.session); err != nil {
		return nil, s.fail(StageRegistration, err)
	}

	deps := Deps{
		Handle:    s.session.Handle(),
		Registrar: s.rpc,
		Logger:    logger,
		Metrics:   s.metrics,
	}
	for _, factory := range managers {
		logger.Info("Loading manager", zap.String("manager", factory.Name))
		if err := factory.New(deps); err != nil {
			return nil, s.fail(StageRegistration, fmt.Errorf("%s manager: %w", factory.Name, err))
		}
	}

	logger.Info("Startup complete",
		zap.Int("methods", s.rpc.Registry().Len()),
		zap.String("url", s.rpc.URL()),
	)
	return s, nil
}

func (s *Server) fail(stage Stage, err error) error {
	s.logger.Error("Startup failed", zap.String("stage", string(stage)), zap.Error(err))
	return &StartupError{Stage: stage, Err: err}
}

// Run blocks serving requests until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	return s.rpc.Serve(ctx)
}

// Close releases the RPC server and the session. It is safe to call more
// than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		var errs []error

		if s.rpc != nil {
			if err := s.rpc.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close rpc server: %w", err))
			}
		}
		if s.session != nil {
			if err := s.session.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop session: %w", err))
			}
		}
		if s.tracer != nil {
			s.tracer.Close()
		}

		s.closeErr = errors.Join(errs...)
		s.logger.Info("Server closed")
	})
	return s.closeErr
}

// RPC returns the RPC server
func (s *Server) RPC() *rpc.Server { return s.rpc }

// Session returns the running session
func (s *Server) Session() *session.Session { return s.session }

// Environment returns the resolved process environment
func (s *Server) Environment() *environment.Environment { return s.env }

// Metrics returns the metrics collector
func (s *Server) Metrics() *monitoring.Metrics { return s.metrics }

func sessionErrorCodes() rpc.ErrorCodes {
	return rpc.ErrorCodes{
		{Err: session.ErrStopped, Code: rpc.CodeInternal},
		{Err: session.ErrInvalid, Code: rpc.CodeInvalidParams},
		{Err: session.ErrNotFound, Code: rpc.CodeNotFound},
		{Err: session.ErrConflict, Code: rpc.CodeConflict},
	}
}
