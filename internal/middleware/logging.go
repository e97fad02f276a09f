package middleware

import (
	"bytes"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"

	// error responses are short JSON bodies; anything longer is cut in logs
	maxLoggedBody = 2048
)

// RequestIDMiddleware ensures every request has a request_id available in headers and context
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(RequestIDHeader)
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set(RequestIDKey, rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Next()
	}
}

type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	if w.body != nil && w.body.Len() < maxLoggedBody {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// RequestLoggingMiddleware logs the outcome of every request. Error
// responses include the body that was sent back.
func RequestLoggingMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		blw := &bodyLogWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"request_id", c.GetString(RequestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_uid", c.GetString(UIDKey),
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Errorw("request completed with server error", append(fields, "response", truncate(blw.body.String()))...)
		case status >= http.StatusBadRequest:
			logger.Warnw("request completed with client error", append(fields, "response", truncate(blw.body.String()))...)
		default:
			logger.Infow("request completed", fields...)
		}
	}
}

func truncate(s string) string {
	if len(s) > maxLoggedBody {
		return s[:maxLoggedBody]
	}
	return s
}

// RecoveryMiddleware converts panics to 500 responses and logs stack traces with context
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("panic recovered",
					"request_id", c.GetString(RequestIDKey),
					"panic", r,
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"client_ip", c.ClientIP(),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "Internal server error",
					"request_id": c.GetString(RequestIDKey),
				})
			}
		}()
		c.Next()
	}
}
