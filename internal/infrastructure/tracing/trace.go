package tracing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/shared/id"
)

// Span represents a single traced operation
type Span struct {
	RequestID id.RequestID
	SpanID    id.SpanID
	Name      string
	StartTime time.Time
	Duration  time.Duration
	Tags      map[string]string
	Error     error
}

// Tracer logs completed spans off the request path
type Tracer struct {
	logger *zap.Logger
	spans  chan *Span
	done   chan struct{}
	once   sync.Once
}

// New creates a new tracer and starts its collector
func New(logger *zap.Logger) *Tracer {
	t := &Tracer{
		logger: logger,
		spans:  make(chan *Span, 1000),
		done:   make(chan struct{}),
	}

	go t.collectSpans()

	return t
}

// StartSpan creates a new span bound to the request carried by ctx
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	requestID := GetRequestID(ctx)
	if requestID == "" {
		requestID = id.NewRequestID()
		ctx = WithRequestID(ctx, requestID)
	}

	span := &Span{
		RequestID: requestID,
		SpanID:    id.NewSpanID(),
		Name:      name,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}

	return span, ctx
}

// Finish marks the span as complete
func (s *Span) Finish() {
	s.Duration = time.Since(s.StartTime)
}

// SetTag adds a tag to the span
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// SetError records an error in the span
func (s *Span) SetError(err error) {
	s.Error = err
}

// Submit hands a finished span to the collector; spans are dropped when the
// buffer is full or the tracer is closed.
func (t *Tracer) Submit(span *Span) {
	select {
	case <-t.done:
		return
	default:
	}

	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("request_id", span.RequestID.String()),
			zap.String("span_id", span.SpanID.String()),
		)
	}
}

// Close stops the collector after draining buffered spans
func (t *Tracer) Close() {
	t.once.Do(func() {
		close(t.done)
	})
}

func (t *Tracer) collectSpans() {
	for {
		select {
		case span := <-t.spans:
			t.processSpan(span)
		case <-t.done:
			for {
				select {
				case span := <-t.spans:
					t.processSpan(span)
				default:
					return
				}
			}
		}
	}
}

func (t *Tracer) processSpan(span *Span) {
	fields := []zap.Field{
		zap.String("request_id", span.RequestID.String()),
		zap.String("span_id", span.SpanID.String()),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
	}
	for k, v := range span.Tags {
		fields = append(fields, zap.String(k, v))
	}

	if span.Error != nil {
		fields = append(fields, zap.Error(span.Error))
		t.logger.Warn("span completed with error", fields...)
	} else {
		t.logger.Debug("span completed", fields...)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stores the request ID in ctx
func WithRequestID(ctx context.Context, requestID id.RequestID) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) id.RequestID {
	if requestID, ok := ctx.Value(requestIDKey).(id.RequestID); ok {
		return requestID
	}
	return ""
}
