package rpc

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Handler serves one RPC method
type Handler func(ctx context.Context, params Params) (any, error)

// Registrar is the registration surface handed to domain managers
type Registrar interface {
	Register(name string, handler Handler) error
}

// Registry maps method names to handlers. Names are unique: a second
// registration of the same name fails instead of replacing the first.
type Registry struct {
	mu       sync.RWMutex
	methods  map[string]Handler
	sealed   bool
	onChange func(count int)
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		methods: make(map[string]Handler),
	}
}

// Register adds a method
func (r *Registry) Register(name string, handler Handler) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, name)
	}

	r.mu.Lock()
	if r.sealed {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRegistrationClosed, name)
	}
	if _, exists := r.methods[name]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateMethod, name)
	}
	r.methods[name] = handler
	count := len(r.methods)
	onChange := r.onChange
	r.mu.Unlock()

	if onChange != nil {
		onChange(count)
	}
	return nil
}

// Lookup returns the handler registered under name
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.methods[name]
	return h, ok
}

// Names returns the registered method names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.methods)
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Len returns the number of registered methods
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.methods)
}

// Seal closes registration. It is called when serving starts.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether registration is closed
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Call invokes the named method. A panicking handler is converted into an
// internal error so that one bad call never takes the server down.
func (r *Registry) Call(ctx context.Context, name string, params Params) (result any, err error) {
	handler, ok := r.Lookup(name)
	if !ok {
		return nil, NewError(CodeMethodNotFound, "method not found: %s", name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = &Error{
				Code:    CodeInternal,
				Message: fmt.Sprintf("internal error: %v", rec),
				stack:   debug.Stack(),
			}
		}
	}()

	return handler(ctx, params)
}

// setOnChange installs a callback that observes the method count
func (r *Registry) setOnChange(fn func(count int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}
