package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	maxRequestIDLen = 64
)

// LoggingMiddleware assigns a request id and logs one line per request.
// Incoming X-Request-ID headers are reused when reasonable.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		event := eventFor(status, len(c.Errors) > 0)
		event = event.
			Str("requestID", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("clientIP", c.ClientIP())

		if !strings.HasPrefix(c.Request.URL.Path, "/healthz") {
			event = event.Str("userAgent", c.Request.UserAgent())
		}
		if len(c.Errors) > 0 {
			event = event.Strs("errors", c.Errors.Errors())
		}
		event.Msg("HTTP request")
	}
}

func eventFor(status int, hasErrors bool) *zerolog.Event {
	switch {
	case status >= 500:
		return log.Error()
	case status >= 400 || hasErrors:
		return log.Warn()
	}
	return log.Info()
}

// RequestID returns the id assigned by LoggingMiddleware, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
