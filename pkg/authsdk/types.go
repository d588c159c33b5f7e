package authsdk

import "time"

// LoginRequest starts (or restarts) a verification flow for an address.
type LoginRequest struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	NewUser     bool   `json:"new_user,omitempty"`
}

// LoginResponse reports whether the code email went out and how long the UI
// should wait before offering a resend.
type LoginResponse struct {
	Delivered          bool `json:"delivered"`
	ResendAfterSeconds int  `json:"resend_after_seconds"`
}

// VerifyRequest submits a 6-digit code against the pending flow.
type VerifyRequest struct {
	Address string `json:"address"`
	Code    string `json:"code"`
}

// VerifyResponse returns the minted session and its bearer token.
type VerifyResponse struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}

// ResendRequest asks for a fresh code for the pending flow.
type ResendRequest struct {
	Address string `json:"address"`
}

// ResendResponse mirrors LoginResponse for the reissued code.
type ResendResponse struct {
	Delivered          bool `json:"delivered"`
	ResendAfterSeconds int  `json:"resend_after_seconds"`
}

// LogoutRequest clears the pending flow and sessions for an address.
type LogoutRequest struct {
	Address string `json:"address"`
}

// Session is the client-facing projection of an authenticated session.
type Session struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone,omitempty"`
	NewUser     bool      `json:"new_user,omitempty"`
	VerifiedAt  time.Time `json:"verified_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// PendingResponse is the read-only projection of an in-flight verification.
// It never carries the expected code.
type PendingResponse struct {
	Address   string    `json:"address"`
	Delivered bool      `json:"delivered"`
	IssuedAt  time.Time `json:"issued_at"`
	Attempts  int       `json:"attempts"`
}

// ErrorResponse is the wire shape of every API error.
type ErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// HealthChecks reports the state of the service's dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// HealthResponse is returned by the livez/readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
