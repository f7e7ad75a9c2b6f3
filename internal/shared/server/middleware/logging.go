package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/shared/telemetry"
)

// Context keys handlers set so the request log can tie a line to a wizard.
const (
	KeyWizardID       = "wizardId"
	KeyWoundID        = "woundId"
	KeyStepTransition = "stepTransition"
)

// Logging emits one structured line per request. 5xx log at error, 4xx at warn.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		status := c.Writer.Status()

		fields := map[string]any{
			"request_id":      RequestIDFromContext(c),
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"route":           c.FullPath(),
			"status":          status,
			"duration_ms":     float64(time.Since(start).Microseconds()) / 1000.0,
			"subject":         SubjectFromContext(c),
			"wizard_id":       stringFromContext(c, KeyWizardID),
			"wound_id":        stringFromContext(c, KeyWoundID),
			"step_transition": stringFromContext(c, KeyStepTransition),
			"client_ip":       c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields["errors"] = errs.String()
		}

		level := "info"
		switch {
		case status >= http.StatusInternalServerError:
			level = "error"
		case status >= http.StatusBadRequest:
			level = "warn"
		}
		telemetry.Log(level, "request.complete", fields)
	}
}
