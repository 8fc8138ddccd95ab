package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/environment"
	"github.com/tribler/tsap/service/internal/infrastructure/config"
	"github.com/tribler/tsap/service/internal/infrastructure/logging"
	"github.com/tribler/tsap/service/internal/infrastructure/server"
)

// Exit codes
const (
	exitOK           = 0
	exitRuntime      = 1
	exitConfig       = 2
	exitSession      = 3
	exitBind         = 4
	exitRegistration = 5
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

// run owns every resource of the process so that deferred cleanup executes
// before main exits.
func run(args []string) (int, error) {
	flags := flag.NewFlagSet("tsapd", flag.ContinueOnError)
	host := flags.String("host", "", "RPC bind host (overrides RPC_HOST)")
	port := flags.Int("port", -1, "RPC port (overrides RPC_PORT)")
	envFile := flags.String("env-file", ".env", "optional .env file applied before configuration is read")
	dev := flags.Bool("dev", false, "development mode (colored logs, debug level)")
	if err := flags.Parse(args); err != nil {
		return exitConfig, err
	}

	if err := environment.LoadDotEnv(*envFile); err != nil {
		return exitConfig, err
	}
	cfg, err := config.Load()
	if err != nil {
		return exitConfig, err
	}
	if *host != "" {
		cfg.RPC.Host = *host
	}
	if *port >= 0 {
		cfg.RPC.Port = *port
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return exitConfig, err
	}

	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	logCfg.Level = cfg.Logging.Level
	logger, err := logging.New(logCfg)
	if err != nil {
		return exitConfig, fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tsapd",
		zap.String("addr", cfg.RPC.Addr()),
		zap.String("path", cfg.RPC.Path),
		zap.String("log_level", cfg.Logging.Level),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger, server.Options{})
	if err != nil {
		return exitCode(err), err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Shutdown incomplete", zap.Error(err))
		}
	}()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Serve loop failed", zap.Error(err))
		return exitRuntime, fmt.Errorf("serve: %w", err)
	}

	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

// exitCode maps a startup failure to the process exit code
func exitCode(err error) int {
	var startupErr *server.StartupError
	if !errors.As(err, &startupErr) {
		return exitRuntime
	}

	switch startupErr.Stage {
	case server.StageEnvironment:
		return exitConfig
	case server.StageSession:
		return exitSession
	case server.StageBind:
		return exitBind
	case server.StageRegistration:
		return exitRegistration
	default:
		return exitRuntime
	}
}
