package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tribler/tsap/service/internal/shared/id"
)

func TestStartSpanReusesRequestID(t *testing.T) {
	tracer := New(zap.NewNop())
	defer tracer.Close()

	ctx := WithRequestID(context.Background(), "req_fixed")
	span, ctx := tracer.StartSpan(ctx, "info")

	assert.Equal(t, id.RequestID("req_fixed"), span.RequestID)
	assert.Equal(t, id.RequestID("req_fixed"), GetRequestID(ctx))
}

func TestStartSpanGeneratesRequestID(t *testing.T) {
	tracer := New(zap.NewNop())
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "info")

	assert.NotEmpty(t, span.RequestID)
	assert.Equal(t, span.RequestID, GetRequestID(ctx))
}

func TestCollectorLogsSpans(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New(zap.New(core))

	span, _ := tracer.StartSpan(context.Background(), "downloads.add")
	span.SetTag("rpc.method", "downloads.add")
	span.SetError(errors.New("boom"))
	span.Finish()
	tracer.Submit(span)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("span completed with error").Len() == 1
	}, time.Second, 5*time.Millisecond)

	tracer.Close()
	tracer.Close()
	// submitting after close is a no-op
	tracer.Submit(span)
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMiddleware())

	var seen id.RequestID
	router.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("generates", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen.String(), w.Header().Get(RequestIDHeader))
	})

	t.Run("propagates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "client-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, id.RequestID("client-42"), seen)
		assert.Equal(t, "client-42", w.Header().Get(RequestIDHeader))
	})
}
