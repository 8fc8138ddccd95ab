package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/api/middleware"
	"github.com/tribler/tsap/service/internal/infrastructure/config"
	"github.com/tribler/tsap/service/internal/infrastructure/logging"
	"github.com/tribler/tsap/service/internal/infrastructure/monitoring"
	"github.com/tribler/tsap/service/internal/infrastructure/tracing"
)

const defaultShutdownTimeout = 5 * time.Second

// unknownMethod labels metrics for names that are not registered
const unknownMethod = "unknown"

// Options carries the optional collaborators of a Server
type Options struct {
	Logger      *logging.Logger
	Metrics     *monitoring.Metrics
	Tracer      *tracing.Tracer
	RateLimit   config.RateLimitConfig
	MetricsPath string
	ErrorCodes  ErrorCodes
	Development bool
}

// Server is a JSON-RPC endpoint bound to a listener. The listener is bound
// by Listen so that address conflicts surface before any method is
// registered; requests are only accepted once Serve runs.
type Server struct {
	cfg      config.RPCConfig
	opts     Options
	logger   *logging.Logger
	listener net.Listener
	registry *Registry
	engine   *gin.Engine

	dispatchMu sync.Mutex
	started    atomic.Bool
	serving    atomic.Bool

	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

// Listen binds the configured address and prepares the HTTP routes
func Listen(cfg config.RPCConfig, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBind, cfg.Addr(), err)
	}

	s := &Server{
		cfg:      cfg,
		opts:     opts,
		logger:   opts.Logger.Named("rpc"),
		listener: listener,
		registry: NewRegistry(),
	}
	if opts.Metrics != nil {
		s.registry.setOnChange(opts.Metrics.SetRegisteredMethods)
	}
	s.engine = s.routes()

	s.logger.Info("RPC server bound",
		zap.String("addr", listener.Addr().String()),
		zap.String("path", cfg.Path),
		zap.Bool("serial", cfg.Serial),
	)

	return s, nil
}

func (s *Server) routes() *gin.Engine {
	if !s.opts.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware())
	if s.opts.Metrics != nil {
		router.Use(monitoring.Middleware(s.opts.Metrics))
	}
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.opts.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.opts.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.opts.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.opts.RateLimit.RequestsPerSecond,
			Burst:             s.opts.RateLimit.Burst,
		}))
	}

	router.POST(s.cfg.Path, s.handleRPC)
	router.GET("/health", s.handleHealth)
	if s.opts.Metrics != nil && s.opts.MetricsPath != "" {
		router.GET(s.opts.MetricsPath, gin.WrapH(s.opts.Metrics.Handler()))
	}

	return router
}

// Register adds a method. It fails once Serve has started.
func (s *Server) Register(name string, handler Handler) error {
	if err := s.registry.Register(name, handler); err != nil {
		return err
	}
	s.logger.Debug("Registered method", zap.String("method", name))
	return nil
}

// Registry returns the method registry
func (s *Server) Registry() *Registry { return s.registry }

// Names returns the registered method names in sorted order
func (s *Server) Names() []string { return s.registry.Names() }

// Addr returns the bound address
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// URL returns the endpoint clients post to
func (s *Server) URL() string {
	return "http://" + s.listener.Addr().String() + s.cfg.Path
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler { return s.engine }

// Serving reports whether the serve loop is running
func (s *Server) Serving() bool { return s.serving.Load() }

// Serve accepts requests until ctx is cancelled, then shuts down gracefully.
// Registration is closed for good as soon as Serve is entered.
func (s *Server) Serve(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}
	s.registry.Seal()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return net.ErrClosed
	}
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = srv
	s.mu.Unlock()

	s.serving.Store(true)
	defer s.serving.Store(false)

	s.logger.Info("Now running",
		zap.String("url", s.URL()),
		zap.Int("methods", s.registry.Len()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down RPC server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	return nil
}

// Close releases the listener. It is safe to call more than once and
// after Serve returned.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.httpServer != nil {
		if err := s.httpServer.Close(); err != nil {
			return fmt.Errorf("close http server: %w", err)
		}
		return nil
	}
	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close listener: %w", err)
	}
	return nil
}

func (s *Server) handleRPC(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize+1))
	if err != nil {
		s.write(c, errorResponse(nil, NewError(CodeParseError, "read request: %v", err)))
		return
	}
	if len(body) > maxBodySize {
		s.write(c, errorResponse(nil, NewError(CodeInvalidRequest, "request exceeds %d bytes", maxBodySize)))
		return
	}

	req, params, rpcErr := decodeRequest(body)
	if rpcErr != nil {
		s.recordError(unknownMethod, rpcErr)
		s.write(c, errorResponse(req.ID, rpcErr))
		return
	}

	s.write(c, s.dispatch(c.Request.Context(), req, params))
}

func (s *Server) dispatch(ctx context.Context, req Request, params Params) Response {
	label := req.Method
	if _, ok := s.registry.Lookup(label); !ok {
		label = unknownMethod
	}
	timer := monitoring.NewTimer(s.opts.Metrics, label)

	var span *tracing.Span
	if s.opts.Tracer != nil {
		span, ctx = s.opts.Tracer.StartSpan(ctx, "rpc.call")
		span.SetTag("method", req.Method)
		defer func() {
			span.Finish()
			s.opts.Tracer.Submit(span)
		}()
	}

	if s.cfg.Serial {
		s.dispatchMu.Lock()
		defer s.dispatchMu.Unlock()
	}

	result, err := s.registry.Call(ctx, req.Method, params)
	if err == nil {
		timer.Stop("ok")
		return resultResponse(req.ID, result)
	}

	rpcErr := s.opts.ErrorCodes.toError(err)
	timer.Stop("error")
	s.recordError(label, rpcErr)
	if span != nil {
		span.SetError(err)
	}

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.Int("code", rpcErr.Code),
		zap.String("request_id", tracing.GetRequestID(ctx).String()),
		zap.Error(err),
	}
	if rpcErr.Code == CodeInternal {
		if len(rpcErr.stack) > 0 {
			fields = append(fields, zap.ByteString("stack", rpcErr.stack))
		}
		s.logger.Error("RPC handler failed", fields...)
	} else {
		s.logger.Debug("RPC call returned error", fields...)
	}

	return errorResponse(req.ID, rpcErr)
}

func (s *Server) recordError(method string, rpcErr *Error) {
	if s.opts.Metrics == nil {
		return
	}
	s.opts.Metrics.RecordRPCError(method, strconv.Itoa(rpcErr.Code))
}

func (s *Server) write(c *gin.Context, resp Response) {
	data, err := sonic.Marshal(resp)
	if err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
		data, _ = sonic.Marshal(errorResponse(resp.ID, NewError(CodeInternal, "encode response")))
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":            "ok",
		"methods":           s.registry.Len(),
		"serving":           s.Serving(),
		"registration_open": !s.registry.Sealed(),
	}
	if s.opts.Metrics != nil {
		snap := s.opts.Metrics.Snapshot()
		body["calls"] = snap.TotalCalls
		body["errors"] = snap.TotalErrors
	}
	c.JSON(http.StatusOK, body)
}
