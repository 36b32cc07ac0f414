package authapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/harborline/storefront/pkg/httpx"
)

// Error codes used across the auth endpoints.
const (
	ErrorCodeValidation       = "validation_error"
	ErrorCodeDuplicateEmail   = "duplicate_email"
	ErrorCodeInvalidCreds     = "invalid_credentials"
	ErrorCodeAccountLocked    = "account_locked"
	ErrorCodeEmailNotVerified = "email_not_verified"
	ErrorCodeInvalidToken     = "invalid_token"
	ErrorCodeMissingToken     = "missing_token"
	ErrorCodeTooManyRequests  = "too_many_requests"
	ErrorCodeServerError      = "server_error"
)

// APIError is the error envelope every auth endpoint returns. It implements
// the error interface so the client can surface it directly.
type APIError struct {
	// StatusCode is the HTTP status for this error.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code.
	Code string `json:"error"`

	// Description is a human-readable explanation.
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this error to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

// WithDescription returns a copy carrying a more specific description.
func (e *APIError) WithDescription(desc string) *APIError {
	clone := *e
	clone.Description = desc
	return &clone
}

var (
	ErrValidation = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidation,
		Description: "the request is malformed or missing required fields",
	}

	ErrDuplicateEmail = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeDuplicateEmail,
		Description: "an account with this email already exists",
	}

	// ErrInvalidCredentials deliberately does not say whether the email or
	// the password was wrong.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCreds,
		Description: "invalid email or password",
	}

	ErrAccountLocked = &APIError{
		StatusCode:  http.StatusLocked,
		Code:        ErrorCodeAccountLocked,
		Description: "account temporarily locked after repeated failed logins",
	}

	ErrEmailNotVerified = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeEmailNotVerified,
		Description: "email address has not been verified",
	}

	// ErrInvalidVerifyToken is for verification links: unknown, expired, and
	// consumed tokens all look the same.
	ErrInvalidVerifyToken = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidToken,
		Description: "verification token is invalid or expired",
	}

	// ErrInvalidRefreshToken is for session refresh; the client should treat
	// it as a sign-out.
	ErrInvalidRefreshToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "refresh token is invalid or expired",
	}

	ErrMissingToken = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMissingToken,
		Description: "no refresh token provided",
	}

	ErrTooManyRequests = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeTooManyRequests,
		Description: "please wait before requesting another verification email",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "an internal error occurred",
	}
)
