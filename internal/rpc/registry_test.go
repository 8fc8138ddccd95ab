package rpc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(_ context.Context, params Params) (any, error) {
	return []any(params), nil
}

func TestRegistryRegister(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		handler Handler
		wantErr error
	}{
		{name: "valid", method: "torrents.add", handler: echo},
		{name: "empty name", method: "", handler: echo, wantErr: ErrEmptyName},
		{name: "blank name", method: "  ", handler: echo, wantErr: ErrEmptyName},
		{name: "nil handler", method: "x", handler: nil, wantErr: ErrNilHandler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tt.method, tt.handler)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, r.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, r.Len())
		})
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	first := func(context.Context, Params) (any, error) { return "first", nil }
	second := func(context.Context, Params) (any, error) { return "second", nil }

	require.NoError(t, r.Register("info", first))
	err := r.Register("info", second)
	assert.ErrorIs(t, err, ErrDuplicateMethod)

	got, err := r.Call(context.Background(), "info", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", got, "first registration must survive")
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySeal(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", echo))

	r.Seal()
	assert.True(t, r.Sealed())
	assert.ErrorIs(t, r.Register("b", echo), ErrRegistrationClosed)
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"torrents.get", "channels.create", "info", "downloads.add"} {
		require.NoError(t, r.Register(name, echo))
	}
	assert.Equal(t, []string{"channels.create", "downloads.add", "info", "torrents.get"}, r.Names())
}

func TestRegistryCall(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("echo", echo))
	require.NoError(t, r.Register("fail", func(context.Context, Params) (any, error) {
		return nil, errors.New("boom")
	}))
	require.NoError(t, r.Register("panic", func(context.Context, Params) (any, error) {
		panic("kaboom")
	}))

	t.Run("success", func(t *testing.T) {
		got, err := r.Call(context.Background(), "echo", Params{"x", true})
		require.NoError(t, err)
		assert.Equal(t, []any{"x", true}, got)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := r.Call(context.Background(), "missing", nil)
		var rpcErr *Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, CodeMethodNotFound, rpcErr.Code)
	})

	t.Run("handler error", func(t *testing.T) {
		_, err := r.Call(context.Background(), "fail", nil)
		assert.EqualError(t, err, "boom")
	})

	t.Run("panic is recovered", func(t *testing.T) {
		got, err := r.Call(context.Background(), "panic", nil)
		assert.Nil(t, got)
		var rpcErr *Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, CodeInternal, rpcErr.Code)
		assert.Contains(t, rpcErr.Message, "kaboom")
		assert.NotEmpty(t, rpcErr.stack)
	})
}

func TestRegistryOnChange(t *testing.T) {
	r := NewRegistry()
	var counts []int
	r.setOnChange(func(n int) { counts = append(counts, n) })

	require.NoError(t, r.Register("a", echo))
	require.NoError(t, r.Register("b", echo))
	_ = r.Register("a", echo)

	assert.Equal(t, []int{1, 2}, counts)
}

func TestRegistryConcurrentRegister(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Register("same", echo) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, r.Len())
}
