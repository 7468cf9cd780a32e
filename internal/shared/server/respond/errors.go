package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrms-backend/internal/shared/telemetry"
)

// Error codes shared by every handler.
const (
	CodeValidation  = "validation_error"
	CodeNotFound    = "not_found"
	CodeConflict    = "conflict"
	CodeRateLimited = "rate_limited"
	CodeInternal    = "internal_error"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if kind := c.GetString("entityKind"); kind != "" {
		fields["entity_kind"] = kind
	}
	if id := c.GetString("entityId"); id != "" {
		fields["entity_id"] = id
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// BadRequest is shorthand for a 400 validation_error.
func BadRequest(c *gin.Context, message string, details interface{}) {
	Error(c, http.StatusBadRequest, CodeValidation, message, details)
}

// NotFound is shorthand for a 404 not_found.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, CodeNotFound, message, nil)
}

// Internal hides the underlying error from the client.
func Internal(c *gin.Context, err error) {
	if err != nil {
		c.Set("error", err.Error())
	}
	Error(c, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
}
