package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hrms-backend/internal/shared/telemetry"
)

// Context keys handlers set so the request log can describe the transition.
const (
	EntityKindKey       = "entityKind"
	EntityIDKey         = "entityId"
	StatusTransitionKey = "statusTransition"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		fields := map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            status,
			"entity_kind":       c.GetString(EntityKindKey),
			"entity_id":         c.GetString(EntityIDKey),
			"status_transition": c.GetString(StatusTransitionKey),
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		}
		if errMsg := c.GetString("error"); errMsg != "" {
			fields["error"] = errMsg
		}
		telemetry.Info("request.complete", fields)
	}
}
