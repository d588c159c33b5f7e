package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMintAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	s := &Signer{Secret: []byte("test-secret"), Issuer: "pakgroccrry-auth"}

	raw, err := s.Mint("01HSESSION", "a@b.com", "A", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := s.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "01HSESSION", claims.SessionID)
	require.Equal(t, "a@b.com", claims.Subject)
	require.Equal(t, "A", claims.DisplayName)
}

func TestVerifyRejectsExpiredTokens(t *testing.T) {
	t.Parallel()

	s := &Signer{Secret: []byte("test-secret"), Issuer: "pakgroccrry-auth"}

	raw, err := s.Mint("01HSESSION", "a@b.com", "A", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = s.Verify(raw)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsForeignSignaturesAndIssuers(t *testing.T) {
	t.Parallel()

	s := &Signer{Secret: []byte("test-secret"), Issuer: "pakgroccrry-auth"}
	exp := time.Now().Add(time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := &Signer{Secret: []byte("other-secret"), Issuer: "pakgroccrry-auth"}
		raw, err := other.Mint("01HSESSION", "a@b.com", "", exp)
		require.NoError(t, err)

		_, err = s.Verify(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := &Signer{Secret: []byte("test-secret"), Issuer: "someone-else"}
		raw, err := other.Mint("01HSESSION", "a@b.com", "", exp)
		require.NoError(t, err)

		_, err = s.Verify(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := s.Verify("not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}
