package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsSetStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"validation", NewValidationError("invalid tv show"), ErrorCodeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("tv show", 7), ErrorCodeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("already tracked"), ErrorCodeConflict, http.StatusConflict},
		{"unauthorized", NewUnauthorizedError("no caller"), ErrorCodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("CanManageTvShows"), ErrorCodeForbidden, http.StatusForbidden},
		{"internal", NewInternalError("db down", errors.New("dial")), ErrorCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.status, HTTPStatusFromErrorCode(tt.code))
		})
	}
}

func TestValidationErrorCarriesFields(t *testing.T) {
	err := NewValidationError("invalid tv show",
		FieldError{Field: "name", Rule: "required", Message: "name is required"})

	assert.Len(t, err.Fields, 1)
	assert.Equal(t, "name is required", err.Details)
	assert.Equal(t, "[VALIDATION_ERROR] invalid tv show: name is required", err.Error())
}

func TestCodeOfFollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("create: %w", NewForbiddenError("CanManageTvShows"))

	assert.Equal(t, ErrorCodeForbidden, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrorCodeForbidden))
	assert.True(t, IsAuthorizationError(wrapped))
	assert.False(t, IsAuthorizationError(NewNotFoundError("tv show", 1)))
	assert.Equal(t, ErrorCodeUnknown, CodeOf(errors.New("plain")))
	assert.False(t, IsCode(nil, ErrorCodeUnknown))
}

func TestInternalErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternalError("query failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection refused", err.CauseString)
	assert.Equal(t, SeverityCritical, err.Severity)
}

func TestWithRetryAfter(t *testing.T) {
	err := NewAppError(ErrorCodeRateLimit, "slow down", http.StatusTooManyRequests).
		WithRetryAfter(2 * time.Second)

	assert.True(t, err.Retryable)
	assert.Equal(t, 2*time.Second, *err.RetryAfter)
}
