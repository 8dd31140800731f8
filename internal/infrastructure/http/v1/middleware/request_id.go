package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"celltrade/pkg/logger"
)

// HeaderRequestID carries the client-side correlation id.
const HeaderRequestID = "X-Request-ID"

// RequestID middleware extracts or generates a request id and stores it in
// the request context so every log line of the request carries it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
