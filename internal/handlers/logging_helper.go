package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.tripjournal/internal/middleware"
)

func requestContextFields(c *gin.Context) []interface{} {
	return []interface{}{
		"request_id", c.GetString(middleware.RequestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"user_uid", c.GetString(middleware.UIDKey),
	}
}

func logWithContext(logger *zap.SugaredLogger, c *gin.Context, level string, msg string, fields ...interface{}) {
	if logger == nil {
		return
	}
	base := requestContextFields(c)
	all := append(base, fields...)
	switch level {
	case "debug":
		logger.Debugw(msg, all...)
	case "warn":
		logger.Warnw(msg, all...)
	case "error":
		logger.Errorw(msg, all...)
	default:
		logger.Infow(msg, all...)
	}
}

func (h *AuthHandler) logError(c *gin.Context, err error, msg string, fields ...interface{}) {
	logWithContext(h.logger, c, "error", msg, append(fields, "error", err)...)
}

func (h *AuthHandler) logWarn(c *gin.Context, err error, msg string, fields ...interface{}) {
	logWithContext(h.logger, c, "warn", msg, append(fields, "error", err)...)
}

func (h *JournalHandler) logWarn(c *gin.Context, err error, msg string, fields ...interface{}) {
	logWithContext(h.logger, c, "warn", msg, append(fields, "error", err)...)
}

func (h *ProfileHandler) logWarn(c *gin.Context, err error, msg string, fields ...interface{}) {
	logWithContext(h.logger, c, "warn", msg, append(fields, "error", err)...)
}
