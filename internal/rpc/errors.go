package rpc

import (
	"errors"
	"fmt"
)

// JSON-RPC 2.0 error codes. The -32000 range carries application errors.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeApplication    = -32000
	CodeNotFound       = -32004
	CodeConflict       = -32009
)

var (
	// ErrBind is returned when the listen address cannot be bound
	ErrBind = errors.New("rpc: bind failed")
	// ErrDuplicateMethod is returned when a method name is already registered
	ErrDuplicateMethod = errors.New("rpc: duplicate method")
	// ErrRegistrationClosed is returned when registering after serving started
	ErrRegistrationClosed = errors.New("rpc: registration closed")
	// ErrEmptyName is returned when a method name is empty
	ErrEmptyName = errors.New("rpc: empty method name")
	// ErrNilHandler is returned when a method is registered without a handler
	ErrNilHandler = errors.New("rpc: nil handler")
	// ErrAlreadyServing is returned when Serve is called twice
	ErrAlreadyServing = errors.New("rpc: already serving")
)

// Error is a JSON-RPC error object. Handlers return it to choose the code
// the client sees.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`

	// stack is set for recovered panics and only logged
	stack []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewError creates an error with the given code
func NewError(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvalidParams creates an invalid params error
func InvalidParams(format string, args ...any) *Error {
	return NewError(CodeInvalidParams, format, args...)
}

// NotFound creates a not found error
func NotFound(format string, args ...any) *Error {
	return NewError(CodeNotFound, format, args...)
}

// Conflict creates a conflict error
func Conflict(format string, args ...any) *Error {
	return NewError(CodeConflict, format, args...)
}

// ErrorCode maps a sentinel error onto a JSON-RPC code
type ErrorCode struct {
	Err  error
	Code int
}

// ErrorCodes maps sentinel errors of other packages onto JSON-RPC codes so
// handlers can return them unchanged. Entries are checked in order; the
// first sentinel the error matches wins.
type ErrorCodes []ErrorCode

// toError converts a handler error into the error object sent to clients
func (m ErrorCodes) toError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	for _, entry := range m {
		if errors.Is(err, entry.Err) {
			return &Error{Code: entry.Code, Message: err.Error()}
		}
	}
	return &Error{Code: CodeApplication, Message: err.Error()}
}
