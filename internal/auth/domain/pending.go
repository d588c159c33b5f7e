package domain

import (
	"strings"
	"time"
)

// Profile holds the opaque registration fields supplied at login and carried
// through unchanged to the session created on successful verification.
type Profile struct {
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	NewUser     bool   `json:"new_user,omitempty"`
}

// PendingVerification is an in-flight registration/login awaiting code
// confirmation. At most one exists per address.
type PendingVerification struct {
	Address   string    `json:"address"`    // contact identifier, immutable for the record's life
	Code      string    `json:"code"`       // current one-time code, replaced wholesale on resend
	IssuedAt  time.Time `json:"issued_at"`  // when the current code was generated
	Delivered bool      `json:"delivered"`  // whether the last send attempt succeeded
	Attempts  int       `json:"attempts"`   // failed verifications against the current code
	Profile   Profile   `json:"profile"`
}

// Expired reports whether the record is past ttl as of now. An expired record
// must be treated as absent even if still physically stored.
func (p PendingVerification) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.IssuedAt) > ttl
}

// PendingUser is the read-only projection handed to the presentation layer.
// It never exposes the expected code.
type PendingUser struct {
	Address   string    `json:"address"`
	Delivered bool      `json:"delivered"`
	IssuedAt  time.Time `json:"issued_at"`
	Attempts  int       `json:"attempts"`
}

// Projection strips the secret fields from a pending record.
func (p PendingVerification) Projection() PendingUser {
	return PendingUser{
		Address:   p.Address,
		Delivered: p.Delivered,
		IssuedAt:  p.IssuedAt,
		Attempts:  p.Attempts,
	}
}

// DisplayNameOrLocalPart resolves the session display name: the profile's
// name when present, otherwise the local part of the address.
func DisplayNameOrLocalPart(profile Profile, address string) string {
	if profile.DisplayName != "" {
		return profile.DisplayName
	}
	if at := strings.IndexByte(address, '@'); at > 0 {
		return address[:at]
	}
	return address
}
