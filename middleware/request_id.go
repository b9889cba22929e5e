package middleware

import (
	"context"

	"github.com/AnTengye/formrelay/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxRequestIDLen = 64

// RequestID middleware assigns each request an id that is echoed in the
// X-Request-ID header and attached to every log line
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Reuse the caller's id only if it is safe to log and echo
		requestID := c.GetHeader("X-Request-ID")
		if !validRequestID(requestID) {
			requestID = uuid.New().String()
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// FormScope tags the request context with the :form route parameter
func FormScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		if form := c.Param("form"); form != "" {
			c.Set("form", form)
			c.Request = c.Request.WithContext(logger.WithForm(c.Request.Context(), form))
		}
		c.Next()
	}
}

// GetRequestID gets the request ID from gin context
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		return requestID.(string)
	}
	return ""
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
