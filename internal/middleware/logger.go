package middleware

import (
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader     = "X-Request-ID"
	RequestIDContextKey = "requestID"
)

// ZapLogger tags each request with an id (reusing X-Request-ID when the
// client sends one), stores a request-scoped logger in the context and logs
// the outcome once the handlers have run.
func ZapLogger(logger *zap.Logger, cfg *config.Config) gin.HandlerFunc {
	quietClientErrors := cfg.GinMode != gin.ReleaseMode
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(RequestIDContextKey, requestID)
		reqLogger := logger.With(zap.String("request_id", requestID))
		c.Set(common.LoggerContextKey, reqLogger)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status_code", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, zap.Strings("errors", errs.Errors()))
		}

		switch {
		case status >= 500:
			reqLogger.Error("Server error", fields...)
		case status >= 400 && !quietClientErrors:
			reqLogger.Warn("Client error", fields...)
		default:
			reqLogger.Info("Request handled", fields...)
		}
	}
}
