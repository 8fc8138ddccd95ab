// Package testutil provides testing utilities shared by the package tests.
package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tribler/tsap/service/internal/infrastructure/logging"
	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/session"
)

// MockRegistrar is a mock implementation of rpc.Registrar that keeps every
// accepted handler so tests can invoke it.
type MockRegistrar struct {
	mock.Mock

	mu       sync.Mutex
	handlers map[string]rpc.Handler
}

// NewMockRegistrar creates a registrar that accepts every registration.
func NewMockRegistrar(t *testing.T) *MockRegistrar {
	t.Helper()
	m := &MockRegistrar{handlers: make(map[string]rpc.Handler)}

	m.On("Register", mock.Anything, mock.Anything).
		Return(nil).
		Maybe()

	return m
}

// NewRejectingRegistrar creates a registrar that fails the named method.
func NewRejectingRegistrar(t *testing.T, name string, err error) *MockRegistrar {
	t.Helper()
	m := &MockRegistrar{handlers: make(map[string]rpc.Handler)}

	m.On("Register", name, mock.Anything).Return(err)
	m.On("Register", mock.Anything, mock.Anything).Return(nil).Maybe()

	return m
}

// Register mocks the Register method.
func (m *MockRegistrar) Register(name string, handler rpc.Handler) error {
	args := m.Called(name, handler)
	if err := args.Error(0); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[name] = handler
	return nil
}

// Names returns the accepted method names in sorted order.
func (m *MockRegistrar) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.handlers))
	for name := range m.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Call invokes a registered handler with positional params.
func (m *MockRegistrar) Call(t *testing.T, name string, params ...any) (any, error) {
	t.Helper()

	m.mu.Lock()
	handler, ok := m.handlers[name]
	m.mu.Unlock()
	require.True(t, ok, "method %s is not registered", name)

	return handler(context.Background(), rpc.Params(params))
}

// NewSession starts an in-memory session that is stopped when the test ends.
func NewSession(t *testing.T) *session.Session {
	t.Helper()

	s, err := session.Start(context.Background(), session.Config{
		DownloadDir: t.TempDir(),
		InMemory:    true,
	}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	return s
}

// NewObservedLogger creates a logger whose records can be inspected.
func NewObservedLogger(level zapcore.Level) (*logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return logging.Wrap(zap.New(core)), logs
}

// InfoHash builds a valid infohash from a short seed, e.g. InfoHash("ab").
func InfoHash(seed string) string {
	if seed == "" {
		seed = "0"
	}
	return strings.Repeat(seed, 40)[:40]
}
