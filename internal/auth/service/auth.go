package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/4PPL8/PakGroccrry/internal/auth/domain"
	"github.com/4PPL8/PakGroccrry/internal/auth/notify"
	"github.com/4PPL8/PakGroccrry/internal/auth/store"
	"github.com/4PPL8/PakGroccrry/pkg/idx"
	"github.com/4PPL8/PakGroccrry/pkg/slogx"
)

const (
	// DefaultMaxAttempts is the exclusive cap on failed verifications per
	// code. The attempt that pushes the counter past it destroys the flow.
	DefaultMaxAttempts = 5

	// DefaultPendingTTL is how long an issued code stays verifiable.
	DefaultPendingTTL = 10 * time.Minute

	// DefaultSessionTTL is the lifetime of an authenticated session.
	DefaultSessionTTL = 30 * 24 * time.Hour
)

var (
	ErrNoPendingFlow   = errors.New("no_pending_flow")
	ErrExpired         = errors.New("code_expired")
	ErrTooManyAttempts = errors.New("too_many_attempts")
	ErrInvalidCode     = errors.New("invalid_code")
	ErrNoSession       = errors.New("no_session")
)

// AuthService owns the pending-verification record and the authenticated
// session record, and enforces the expiry and attempt-limit policy. It is the
// only writer of either record.
type AuthService struct {
	Store  store.Store
	Sender notify.Sender

	PendingTTL  time.Duration // zero means DefaultPendingTTL
	SessionTTL  time.Duration // zero means DefaultSessionTTL
	MaxAttempts int           // zero means DefaultMaxAttempts
}

// Login starts a verification flow: it records a fresh pending verification
// for the address and asks the Sender to deliver the code.
//
// A failed delivery is reported through the returned boolean, not an error:
// the record is persisted either way so the user can still verify through
// another channel or request a resend. Only a non-delivery failure from the
// collaborator propagates as an error, and then nothing is persisted.
//
// Any existing flow for the address is overwritten unconditionally; there is
// at most one in-flight verification per address.
func (s *AuthService) Login(ctx context.Context, address, code string, profile domain.Profile) (bool, error) {
	l := slogx.FromContext(ctx)

	pending := domain.PendingVerification{
		Address:  address,
		Code:     code,
		IssuedAt: time.Now().UTC(),
		Profile:  profile,
	}

	delivered := true
	if err := s.Sender.Send(ctx, address, code); err != nil {
		var de *notify.DeliveryError
		if !errors.As(err, &de) {
			return false, fmt.Errorf("send verification code: %w", err)
		}
		// The flow carries on: the user can request a resend later.
		delivered = false
		l.Warn("verification code delivery failed", "address", address, "err", de.Err)
	}
	pending.Delivered = delivered

	if err := s.Store.Pending().PutPending(ctx, pending); err != nil {
		return false, fmt.Errorf("persist pending verification: %w", err)
	}

	l.Info("verification flow started", "address", address, "delivered", delivered)
	return delivered, nil
}

// VerifyCode checks a submitted code against the pending flow for the
// address. On success it mints the authenticated session and destroys the
// pending record. Failures are signalled as errors:
//
//   - ErrNoPendingFlow: no flow exists (or the stored record was unreadable)
//   - ErrExpired: the code outlived its TTL; the record is destroyed
//   - ErrTooManyAttempts: the attempt cap was exceeded; the record is destroyed
//   - ErrInvalidCode: wrong code; the record survives with the attempt charged
func (s *AuthService) VerifyCode(ctx context.Context, address, code string) (domain.Session, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	// 1. A flow must exist.
	pending, err := s.Store.Pending().GetPending(ctx, address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrNoPendingFlow
		}
		return domain.Session{}, err
	}

	// 2. Expiry wins over everything else.
	if pending.Expired(now, s.pendingTTL()) {
		_ = s.Store.Pending().DeletePending(ctx, address)
		return domain.Session{}, ErrExpired
	}

	// 3. Charge the attempt and persist it BEFORE comparing, so a crash
	// mid-check cannot lose the charge.
	pending.Attempts++
	if err := s.Store.Pending().PutPending(ctx, pending); err != nil {
		return domain.Session{}, fmt.Errorf("persist attempt count: %w", err)
	}

	// 4. The attempt that pushes the counter past the cap locks the flow out
	// without its code ever being checked.
	if pending.Attempts > s.maxAttempts() {
		_ = s.Store.Pending().DeletePending(ctx, address)
		l.Warn("verification locked out", "address", address, "attempts", pending.Attempts)
		return domain.Session{}, ErrTooManyAttempts
	}

	// 5. Compare the submitted code.
	if subtle.ConstantTimeCompare([]byte(code), []byte(pending.Code)) != 1 {
		l.Info("verification attempt failed", "address", address, "attempts", pending.Attempts)
		if !pending.Delivered {
			// Hint that the original email may never have arrived.
			return domain.Session{}, fmt.Errorf("%w: the code email may not have been delivered, request a new code", ErrInvalidCode)
		}
		return domain.Session{}, ErrInvalidCode
	}

	session := domain.Session{
		ID:          idx.New().String(),
		Address:     pending.Address,
		DisplayName: domain.DisplayNameOrLocalPart(pending.Profile, pending.Address),
		Phone:       pending.Profile.Phone,
		NewUser:     pending.Profile.NewUser,
		VerifiedAt:  now,
		ExpiresAt:   now.Add(s.sessionTTL()),
	}
	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("persist session: %w", err)
	}

	// Session first, then pending: a failure in between leaves a stale
	// pending record destroyed on its next touch, never a lost session.
	if err := s.Store.Pending().DeletePending(ctx, address); err != nil {
		l.Warn("failed to clear verified pending record", "address", address, "err", err)
	}

	l.Info("verification succeeded", "address", address, "session_id", session.ID)
	return session, nil
}

// ResendCode reissues the flow's code: the expected code, issue time,
// delivered flag, and attempt counter are all replaced.
//
// Unlike Login, a failed delivery here propagates as an error, but only
// AFTER the replacement has been committed, so the counters reset even when
// the email never leaves.
func (s *AuthService) ResendCode(ctx context.Context, address, newCode string) error {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	pending, err := s.Store.Pending().GetPending(ctx, address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoPendingFlow
		}
		return err
	}

	// An expired record is as good as absent.
	if pending.Expired(now, s.pendingTTL()) {
		_ = s.Store.Pending().DeletePending(ctx, address)
		return ErrNoPendingFlow
	}

	var sendErr error
	if err := s.Sender.Send(ctx, address, newCode); err != nil {
		var de *notify.DeliveryError
		if !errors.As(err, &de) {
			return fmt.Errorf("resend verification code: %w", err)
		}
		sendErr = err
	}

	pending.Code = newCode
	pending.IssuedAt = now
	pending.Attempts = 0
	pending.Delivered = sendErr == nil
	if err := s.Store.Pending().PutPending(ctx, pending); err != nil {
		return fmt.Errorf("persist reissued verification: %w", err)
	}

	if sendErr != nil {
		l.Warn("reissued code delivery failed", "address", address)
		return fmt.Errorf("code reissued: %w", sendErr)
	}

	l.Info("verification code reissued", "address", address)
	return nil
}

// Logout clears the pending flow and every session for the address from both
// stores. It is idempotent: logging out an already logged-out address is a
// no-op, not an error.
func (s *AuthService) Logout(ctx context.Context, address string) error {
	var errs []error
	if err := s.Store.Pending().DeletePending(ctx, address); err != nil {
		errs = append(errs, fmt.Errorf("clear pending verification: %w", err))
	}
	if err := s.Store.Sessions().DeleteSessionsByAddress(ctx, address); err != nil {
		errs = append(errs, fmt.Errorf("clear sessions: %w", err))
	}
	return errors.Join(errs...)
}

// PendingUser returns the read-only projection of the in-flight flow for the
// presentation layer (countdown display, redirect decisions). Expired records
// are cleared and reported as absent.
func (s *AuthService) PendingUser(ctx context.Context, address string) (domain.PendingUser, error) {
	pending, err := s.Store.Pending().GetPending(ctx, address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PendingUser{}, ErrNoPendingFlow
		}
		return domain.PendingUser{}, err
	}
	if pending.Expired(time.Now().UTC(), s.pendingTTL()) {
		_ = s.Store.Pending().DeletePending(ctx, address)
		return domain.PendingUser{}, ErrNoPendingFlow
	}
	return pending.Projection(), nil
}

// SessionByID loads an authenticated session, treating expired sessions as
// absent so a revoked or aged-out token cannot resurrect one.
func (s *AuthService) SessionByID(ctx context.Context, id string) (domain.Session, error) {
	session, err := s.Store.Sessions().GetSessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrNoSession
		}
		return domain.Session{}, err
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.Store.Sessions().DeleteSession(ctx, id)
		return domain.Session{}, ErrNoSession
	}
	return session, nil
}

func (s *AuthService) pendingTTL() time.Duration {
	if s.PendingTTL > 0 {
		return s.PendingTTL
	}
	return DefaultPendingTTL
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return DefaultSessionTTL
}

func (s *AuthService) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return DefaultMaxAttempts
}
