package server

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/environment"
	"github.com/tribler/tsap/service/internal/infrastructure/logging"
	"github.com/tribler/tsap/service/internal/infrastructure/tracing"
	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/session"
)

// Methods every server exposes regardless of managers
const (
	MethodInfo        = "info"
	MethodListMethods = "system.list_methods"
	MethodStatus      = "system.status"
	MethodEnvironment = "system.environment"
)

// Status is the result of system.status
type Status struct {
	SessionRunning bool      `json:"session_running"`
	StartedAt      time.Time `json:"started_at"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
	Methods        int       `json:"methods"`
}

// EnvironmentInfo is the result of system.environment
type EnvironmentInfo struct {
	Variables map[string]string `json:"variables"`
	WorkDir   string            `json:"work_dir"`
	Android   bool              `json:"android"`
}

func registerBuiltins(srv *rpc.Server, logger *logging.Logger, env *environment.Environment, sess *session.Session) error {
	infoLogger := logger.Named("rpc.info")

	// info only logs its argument; it touches no session state
	info := func(ctx context.Context, p rpc.Params) (any, error) {
		if err := p.Expect(1, 1); err != nil {
			return nil, err
		}
		message, err := p.String(0)
		if err != nil {
			return nil, err
		}
		infoLogger.Info("Client info",
			zap.String("message", message),
			zap.String("request_id", tracing.GetRequestID(ctx).String()),
		)
		return nil, nil
	}

	listMethods := func(_ context.Context, p rpc.Params) (any, error) {
		if err := p.Expect(0, 0); err != nil {
			return nil, err
		}
		return srv.Names(), nil
	}

	status := func(_ context.Context, p rpc.Params) (any, error) {
		if err := p.Expect(0, 0); err != nil {
			return nil, err
		}
		startedAt := sess.Handle().StartedAt()
		return Status{
			SessionRunning: sess.Running(),
			StartedAt:      startedAt,
			UptimeSeconds:  int64(time.Since(startedAt).Seconds()),
			Methods:        srv.Registry().Len(),
		}, nil
	}

	environmentInfo := func(_ context.Context, p rpc.Params) (any, error) {
		if err := p.Expect(0, 0); err != nil {
			return nil, err
		}
		return EnvironmentInfo{
			Variables: env.Entries(),
			WorkDir:   env.WorkDir(),
			Android:   env.IsAndroid(),
		}, nil
	}

	builtins := []struct {
		name    string
		handler rpc.Handler
	}{
		{MethodInfo, info},
		{MethodListMethods, listMethods},
		{MethodStatus, status},
		{MethodEnvironment, environmentInfo},
	}
	for _, b := range builtins {
		if err := srv.Register(b.name, b.handler); err != nil {
			return fmt.Errorf("register %s: %w", b.name, err)
		}
	}
	return nil
}
