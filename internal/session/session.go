package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/infrastructure/logging"
	"github.com/tribler/tsap/service/internal/shared/types"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrStopped is returned by store calls after the session stopped
	ErrStopped = errors.New("session stopped")
	// ErrInvalid wraps record validation failures
	ErrInvalid = errors.New("invalid record")
	// ErrConflict is returned when a state transition is not allowed
	ErrConflict = errors.New("conflict")
)

// Config contains session configuration
type Config struct {
	StateDir         string
	DownloadDir      string
	InMemory         bool
	SyncWrites       bool
	ValueLogFileSize int64
}

// Session owns the lifecycle of the engine state: it is started once and
// hands out a Handle that domain managers operate on.
type Session struct {
	cfg       Config
	db        *badger.DB
	handle    *Handle
	logger    *logging.Logger
	startedAt time.Time

	mu      sync.Mutex
	stopped bool
}

// Start opens the session store and brings the session to a running state.
func Start(ctx context.Context, cfg Config, logger *logging.Logger) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.DownloadDir == "" {
		return nil, fmt.Errorf("%w: download directory is required", ErrInvalid)
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.StateDir == "" {
			return nil, fmt.Errorf("%w: state directory is required", ErrInvalid)
		}
		opts = badger.DefaultOptions(filepath.Join(cfg.StateDir, "db"))
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(newBadgerLogger(logger)).
		WithLoggingLevel(badger.WARNING)
	if cfg.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(cfg.ValueLogFileSize)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	now := time.Now().UTC()
	s := &Session{
		cfg:       cfg,
		db:        db,
		logger:    logger,
		startedAt: now,
	}
	s.handle = &Handle{
		db:          db,
		validate:    newValidator(),
		downloadDir: cfg.DownloadDir,
		startedAt:   now,
	}

	logger.Info("Session started",
		zap.String("state_dir", cfg.StateDir),
		zap.String("download_dir", cfg.DownloadDir),
		zap.Bool("in_memory", cfg.InMemory),
	)

	return s, nil
}

// newValidator returns a validator that knows the infohash tag used by
// the record types.
func newValidator() *validator.Validate {
	v := validator.New()
	// the tag name is a constant, registration cannot fail
	_ = v.RegisterValidation("infohash", func(fl validator.FieldLevel) bool {
		return types.IsInfoHash(fl.Field().String())
	})
	return v
}

// Handle returns the capability shared with domain managers
func (s *Session) Handle() *Handle {
	return s.handle
}

// Running reports whether Stop has not been called yet
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped
}

// Stop closes the session store. It is safe to call more than once.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true

	if err := s.handle.stop(); err != nil {
		s.logger.Error("Failed to close session store", zap.Error(err))
		return fmt.Errorf("close session store: %w", err)
	}

	s.logger.Info("Session stopped", zap.Duration("uptime", time.Since(s.startedAt)))
	return nil
}
