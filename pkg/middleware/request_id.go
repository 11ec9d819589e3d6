package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gronit/club-portal/pkg/logger"
)

const (
	HeaderRequestID      = "X-Request-ID"
	ContextKeyRequestID  = "request_id"
	maxIncomingRequestID = 128
)

// RequestID propagates X-Request-ID, generating one when the client sent
// none. The id is stored on the gin context, the request context (for
// logger.WithContext) and the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxIncomingRequestID {
			id = uuid.New().String()
		}

		c.Set(ContextKeyRequestID, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, id))
		c.Header(HeaderRequestID, id)

		c.Next()
	}
}

// GetRequestID returns the request id set by RequestID, falling back to the header.
func GetRequestID(c *gin.Context) string {
	if id, ok := getString(c, ContextKeyRequestID); ok && id != "" {
		return id
	}
	if c.Request != nil {
		return c.GetHeader(HeaderRequestID)
	}
	return ""
}
