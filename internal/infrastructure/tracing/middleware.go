package tracing

import (
	"github.com/gin-gonic/gin"

	"github.com/tribler/tsap/service/internal/shared/id"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// HTTPMiddleware assigns every request an ID, honouring one supplied by the
// caller, and echoes it in the response headers.
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := id.RequestID(c.GetHeader(RequestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = id.NewRequestID()
		}

		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID.String())

		c.Next()
	}
}
