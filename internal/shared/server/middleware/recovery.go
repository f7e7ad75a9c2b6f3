package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/shared/server/respond"
	"woundtrack-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope and logs the wizard id
// when the route carries one.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			}
			if subject := SubjectFromContext(c); subject != "" {
				fields["subject"] = subject
			}
			if wizardID := c.Param("wizardId"); wizardID != "" {
				fields["wizard_id"] = wizardID
			}
			telemetry.Error("panic", fields)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
