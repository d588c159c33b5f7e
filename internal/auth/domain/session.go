package domain

import "time"

// Session is a verified, logged-in identity. It exists if and only if the
// client is authenticated; creating one always destroys the pending
// verification it was minted from.
type Session struct {
	ID          string    `json:"id"` // ULID
	Address     string    `json:"address"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone,omitempty"`
	NewUser     bool      `json:"new_user,omitempty"`
	VerifiedAt  time.Time `json:"verified_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}
