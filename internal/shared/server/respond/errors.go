package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/shared/telemetry"
)

// LoginPath is where clients are sent when their session is missing or expired.
const LoginPath = "/login"

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	abort(c, status, ErrorBody{Code: code, Message: message, Details: details})
}

// SessionExpired sends a 401 telling the client to go back to the login screen.
func SessionExpired(c *gin.Context, message string) {
	if message == "" {
		message = "Your session has expired. Please sign in again."
	}
	abort(c, http.StatusUnauthorized, ErrorBody{Code: "session_expired", Message: message, Redirect: LoginPath})
}

func abort(c *gin.Context, status int, body ErrorBody) {
	fields := map[string]any{
		"status":     status,
		"code":       body.Code,
		"message":    body.Message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if subject := c.GetString("subject"); subject != "" {
		fields["subject"] = subject
	}
	if wizardID := c.GetString("wizardId"); wizardID != "" {
		fields["wizard_id"] = wizardID
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{Error: body})
}
