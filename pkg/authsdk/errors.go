package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// API error codes shared between server and client.
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeNoPendingFlow     = "no_pending_flow"
	ErrorCodeCodeExpired       = "code_expired"
	ErrorCodeTooManyAttempts   = "too_many_attempts"
	ErrorCodeInvalidCode       = "invalid_code"
	ErrorCodeDeliveryFailed    = "delivery_failed"
	ErrorCodeInvalidToken      = "invalid_token"
	ErrorCodeServerError       = "server_error"
	ErrorCodeRateLimitExceeded = "rate_limit_exceeded"
)

// APIError is the typed error shared by the server (to write HTTP responses)
// and the SDK client (to represent received failures).
type APIError struct {
	// StatusCode is the HTTP status code for this error.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code.
	Code string `json:"error"`

	// Description is a human-readable description.
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WithDescription returns a copy carrying a more specific description.
func (e *APIError) WithDescription(desc string) *APIError {
	clone := *e
	clone.Description = desc
	return &clone
}

// WriteError writes the error to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Code:        e.Code,
		Description: e.Description,
	})
}

// Predefined API errors.
var (
	// ErrInvalidRequest reports a malformed or incomplete request body.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrNoPendingFlow reports that no verification is in flight for the
	// address. The UI should redirect back to the registration entry point.
	ErrNoPendingFlow = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNoPendingFlow,
		Description: "no verification is in progress for this address",
	}

	// ErrCodeExpired reports that the code outlived its validity window.
	// The flow is gone; the UI must restart registration.
	ErrCodeExpired = &APIError{
		StatusCode:  http.StatusGone,
		Code:        ErrorCodeCodeExpired,
		Description: "the verification code has expired, start over",
	}

	// ErrTooManyAttempts reports that the attempt cap was exceeded. The flow
	// is gone; the UI must restart registration.
	ErrTooManyAttempts = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeTooManyAttempts,
		Description: "too many failed attempts, start over",
	}

	// ErrInvalidCode reports a wrong code. The flow survives; the UI keeps
	// the input active for a retry.
	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidCode,
		Description: "the verification code is incorrect",
	}

	// ErrDeliveryFailed reports that a reissued code could not be emailed.
	// The code WAS reissued: counters and expiry have reset regardless.
	ErrDeliveryFailed = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeDeliveryFailed,
		Description: "the code was reissued but the email could not be sent",
	}

	// ErrInvalidToken reports a missing, malformed, or revoked bearer token.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "invalid or expired session token",
	}

	// ErrServerError reports an unexpected internal failure.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "an unexpected error occurred",
	}
)
