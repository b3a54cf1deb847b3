package server

import (
	"context"
	"strings"
	"time"

	"termchat/internal/auth"
	"termchat/pkg/utils/contextkey"
	"termchat/pkg/utils/logger"
	"termchat/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const traceIDHeader = "X-Trace-Id"

// traceContext ensures every request carries a trace id in context and in the
// response headers.
func traceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := strings.TrimSpace(c.GetHeader(traceIDHeader))
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)
		ctx := context.WithValue(c.Request.Context(), contextkey.TraceID, traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(traceIDHeader, traceID)
		c.Next()
	}
}

// requestLogger logs one line per completed request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// requireAuth validates the bearer token and stores the username in context.
func requireAuth(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == "" || raw == header {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}

		username, err := authSvc.ParseToken(raw)
		if err != nil {
			response.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set("username", username)
		ctx := context.WithValue(c.Request.Context(), contextkey.Username, username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
