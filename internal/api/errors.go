// Package api provides error handling utilities for HTTP APIs
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/mantonx/seasontracker/internal/types"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error   ErrorDetails `json:"error"`
	Success bool         `json:"success"`
}

// ErrorDetails contains detailed error information
type ErrorDetails struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Fields     []types.FieldError     `json:"fields,omitempty"`
	Retryable  bool                   `json:"retryable"`
	RetryAfter int                    `json:"retry_after,omitempty"` // seconds
	Context    map[string]interface{} `json:"context,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
}

// RespondWithError sends a structured error response and aborts the chain.
// Errors that are not *types.AppError are reported as opaque internal errors.
func RespondWithError(c *gin.Context, err error) {
	requestID := c.GetString(RequestIDKey)
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		appErr = types.NewInternalError("internal server error", err)
	}

	response := ErrorResponse{
		Success: false,
		Error: ErrorDetails{
			Code:      string(appErr.Code),
			Message:   appErr.Message,
			Details:   appErr.Details,
			Fields:    appErr.Fields,
			Retryable: appErr.Retryable,
			Context:   appErr.Context,
			RequestID: requestID,
		},
	}

	// Internal causes are logged, never echoed to the client.
	if appErr.Code == types.ErrorCodeInternal {
		response.Error.Details = ""
	}

	if appErr.RetryAfter != nil {
		seconds := int(appErr.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response.Error.RetryAfter = seconds
		c.Header("Retry-After", strconv.Itoa(seconds))
	}

	logError(c, appErr, requestID)

	status := appErr.HTTPStatus
	if status == 0 {
		status = types.HTTPStatusFromErrorCode(appErr.Code)
	}
	c.AbortWithStatusJSON(status, response)
}

// RespondWithNotFound sends a not found error response
func RespondWithNotFound(c *gin.Context, resource string, id interface{}) {
	RespondWithError(c, types.NewNotFoundError(resource, id))
}

// RespondWithInternalError sends an internal error response
func RespondWithInternalError(c *gin.Context, message string, cause error) {
	RespondWithError(c, types.NewInternalError(message, cause))
}

func logError(c *gin.Context, err *types.AppError, requestID string) {
	fields := []interface{}{
		"error_code", err.Code,
		"error_message", err.Message,
		"request_id", requestID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}

	if err.Details != "" {
		fields = append(fields, "details", err.Details)
	}
	for k, v := range err.Context {
		fields = append(fields, k, v)
	}
	if err.Cause != nil {
		fields = append(fields, "cause", err.Cause.Error())
	}

	switch err.Severity {
	case types.SeverityCritical, types.SeverityError:
		logger.Error("request failed", fields...)
	case types.SeverityWarning:
		logger.Warn("request rejected", fields...)
	default:
		logger.Debug("request rejected", fields...)
	}
}

// ErrorMiddleware recovers from panics and renders them as structured 500s.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				var err error
				switch v := r.(type) {
				case error:
					err = v
				case string:
					err = errors.New(v)
				default:
					err = fmt.Errorf("panic: %v", v)
				}

				logger.Error("panic recovered",
					"error", err,
					"request_path", c.Request.URL.Path,
					"request_method", c.Request.Method,
				)

				RespondWithError(c, types.NewInternalError("panic recovered", err))
			}
		}()

		c.Next()
	}
}

// NoRoute renders unknown routes in the standard error shape.
func NoRoute(c *gin.Context) {
	RespondWithError(c, types.NewAppError(types.ErrorCodeNotFound, "route not found", http.StatusNotFound))
}
