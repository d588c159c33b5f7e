package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken reports a token that failed signature or claim checks.
	ErrInvalidToken = errors.New("jwtx: invalid token")
	// ErrExpiredToken reports a structurally valid token past its expiry.
	ErrExpiredToken = errors.New("jwtx: token expired")
)

// Claims carried by a session bearer token. The session ID is the durable
// record of truth; the token is only a pointer to it.
type Claims struct {
	SessionID   string `json:"sid"`
	DisplayName string `json:"name,omitempty"`

	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 session tokens.
type Signer struct {
	Secret []byte
	Issuer string
}

// Mint signs a session token for the given subject (contact address) bound to
// a durable session ID, expiring at exp.
func (s *Signer) Mint(sessionID, address, displayName string, exp time.Time) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID:   sessionID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: signing failed: %w", err)
	}
	return signed, nil
}

// Verify parses raw, checks the HS256 signature, issuer, and expiry, and
// returns the embedded claims.
func (s *Signer) Verify(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.Secret, nil
	}, jwt.WithIssuer(s.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if !token.Valid || claims.SessionID == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
