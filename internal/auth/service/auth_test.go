package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/4PPL8/PakGroccrry/internal/auth/domain"
	"github.com/4PPL8/PakGroccrry/internal/auth/notify"
	"github.com/4PPL8/PakGroccrry/internal/auth/store"
	redisdriver "github.com/4PPL8/PakGroccrry/internal/auth/store/drivers/redis"
	sqlitedriver "github.com/4PPL8/PakGroccrry/internal/auth/store/drivers/sqlite"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

// senderStub is a deterministic Sender double. With deliverFails set it
// reports a DeliveryError on every call; with infraErr set it fails with a
// non-delivery error.
type senderStub struct {
	deliverFails bool
	infraErr     error
	sent         []string
}

func (s *senderStub) Send(ctx context.Context, address, code string) error {
	if s.infraErr != nil {
		return s.infraErr
	}
	if s.deliverFails {
		return &notify.DeliveryError{Address: address, Err: errors.New("stub delivery failure")}
	}
	s.sent = append(s.sent, code)
	return nil
}

func newTestService(t *testing.T) (*AuthService, *senderStub) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	pendingStore, err := redisdriver.NewStore(redisdriver.Config{Addr: mr.Addr(), GCAfter: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pendingStore.Close() })

	sessionStore, err := sqlitedriver.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessionStore.Close() })
	require.NoError(t, sessionStore.ApplyMigrations())

	sender := &senderStub{}
	svc := &AuthService{
		Store: &store.Composite{
			SessionStore: sessionStore.Sessions(),
			PendingStore: pendingStore.Pending(),
		},
		Sender: sender,
	}
	return svc, sender
}

func TestLoginThenVerifySucceeds(t *testing.T) {
	ctx := context.Background()
	svc, sender := newTestService(t)

	delivered, err := svc.Login(ctx, "a@b.com", "123456", domain.Profile{DisplayName: "A", Phone: "+92300"})
	require.NoError(t, err)
	require.True(t, delivered)
	require.Equal(t, []string{"123456"}, sender.sent)

	session, err := svc.VerifyCode(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", session.Address)
	require.Equal(t, "A", session.DisplayName)
	require.Equal(t, "+92300", session.Phone)
	require.NotEmpty(t, session.ID)

	// The pending flow is destroyed by the successful verification.
	_, err = svc.VerifyCode(ctx, "a@b.com", "123456")
	require.ErrorIs(t, err, ErrNoPendingFlow)

	// The session is durably retrievable.
	got, err := svc.SessionByID(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, session.Address, got.Address)
}

func TestDisplayNameFallsBackToLocalPart(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Login(ctx, "fatima@example.com", "123456", domain.Profile{})
	require.NoError(t, err)

	session, err := svc.VerifyCode(ctx, "fatima@example.com", "123456")
	require.NoError(t, err)
	require.Equal(t, "fatima", session.DisplayName)
}

func TestAttemptLimitBoundary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Login(ctx, "a@b.com", "123456", domain.Profile{})
	require.NoError(t, err)

	// Attempts 1-5 are charged and checked; the flow survives each.
	for i := 1; i <= 5; i++ {
		_, err := svc.VerifyCode(ctx, "a@b.com", "000000")
		require.ErrorIs(t, err, ErrInvalidCode, "attempt %d", i)

		pending, err := svc.Store.Pending().GetPending(ctx, "a@b.com")
		require.NoError(t, err)
		require.Equal(t, i, pending.Attempts)
	}

	// The 6th call pushes the counter past the cap and locks out before
	// the code is even compared, so the correct code is refused too.
	_, err = svc.VerifyCode(ctx, "a@b.com", "123456")
	require.ErrorIs(t, err, ErrTooManyAttempts)

	_, err = svc.VerifyCode(ctx, "a@b.com", "123456")
	require.ErrorIs(t, err, ErrNoPendingFlow)
}

func TestExpiredCodeDestroysFlow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.NoError(t, svc.Store.Pending().PutPending(ctx, domain.PendingVerification{
		Address:   "a@b.com",
		Code:      "123456",
		IssuedAt:  time.Now().UTC().Add(-11 * time.Minute),
		Delivered: true,
	}))

	_, err := svc.VerifyCode(ctx, "a@b.com", "123456")
	require.ErrorIs(t, err, ErrExpired)

	_, err = svc.VerifyCode(ctx, "a@b.com", "123456")
	require.ErrorIs(t, err, ErrNoPendingFlow)
}

func TestResendResetsStateEvenWhenDeliveryFails(t *testing.T) {
	ctx := context.Background()
	svc, sender := newTestService(t)

	_, err := svc.Login(ctx, "a@b.com", "123456", domain.Profile{})
	require.NoError(t, err)

	// Burn two attempts.
	_, err = svc.VerifyCode(ctx, "a@b.com", "000000")
	require.ErrorIs(t, err, ErrInvalidCode)
	_, err = svc.VerifyCode(ctx, "a@b.com", "111111")
	require.ErrorIs(t, err, ErrInvalidCode)

	t.Run("successful resend", func(t *testing.T) {
		require.NoError(t, svc.ResendCode(ctx, "a@b.com", "654321"))

		pending, err := svc.Store.Pending().GetPending(ctx, "a@b.com")
		require.NoError(t, err)
		require.Equal(t, "654321", pending.Code)
		require.Zero(t, pending.Attempts)
		require.True(t, pending.Delivered)
	})

	t.Run("failed resend still commits the replacement", func(t *testing.T) {
		sender.deliverFails = true
		err := svc.ResendCode(ctx, "a@b.com", "777777")

		var de *notify.DeliveryError
		require.ErrorAs(t, err, &de)

		pending, err2 := svc.Store.Pending().GetPending(ctx, "a@b.com")
		require.NoError(t, err2)
		require.Equal(t, "777777", pending.Code)
		require.Zero(t, pending.Attempts)
		require.False(t, pending.Delivered)

		// The reissued code is verifiable despite the failed delivery.
		sender.deliverFails = false
		session, err2 := svc.VerifyCode(ctx, "a@b.com", "777777")
		require.NoError(t, err2)
		require.Equal(t, "a@b.com", session.Address)
	})
}

func TestResendWithoutFlow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.ErrorIs(t, svc.ResendCode(ctx, "a@b.com", "123456"), ErrNoPendingFlow)

	// An expired record counts as absent for resend as well.
	require.NoError(t, svc.Store.Pending().PutPending(ctx, domain.PendingVerification{
		Address:  "a@b.com",
		Code:     "123456",
		IssuedAt: time.Now().UTC().Add(-time.Hour),
	}))
	require.ErrorIs(t, svc.ResendCode(ctx, "a@b.com", "654321"), ErrNoPendingFlow)

	_, err := svc.Store.Pending().GetPending(ctx, "a@b.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoginWithFailedDelivery(t *testing.T) {
	ctx := context.Background()
	svc, sender := newTestService(t)
	sender.deliverFails = true

	delivered, err := svc.Login(ctx, "a@b.com", "123456", domain.Profile{})
	require.NoError(t, err)
	require.False(t, delivered)

	// The flow is persisted regardless: the code can still be verified.
	pending, err := svc.Store.Pending().GetPending(ctx, "a@b.com")
	require.NoError(t, err)
	require.False(t, pending.Delivered)

	// A wrong code hints that the email may not have arrived.
	_, err = svc.VerifyCode(ctx, "a@b.com", "000000")
	require.ErrorIs(t, err, ErrInvalidCode)
	require.Contains(t, err.Error(), "delivered")

	session, err := svc.VerifyCode(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", session.Address)
}

func TestLoginInfrastructureFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	svc, sender := newTestService(t)
	sender.infraErr = fmt.Errorf("sender wiring broken")

	_, err := svc.Login(ctx, "a@b.com", "123456", domain.Profile{})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoPendingFlow)

	_, err = svc.Store.Pending().GetPending(ctx, "a@b.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoginOverwritesExistingFlow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Login(ctx, "a@b.com", "123456", domain.Profile{})
	require.NoError(t, err)
	_, err = svc.VerifyCode(ctx, "a@b.com", "000000")
	require.ErrorIs(t, err, ErrInvalidCode)

	_, err = svc.Login(ctx, "a@b.com", "654321", domain.Profile{})
	require.NoError(t, err)

	pending, err := svc.Store.Pending().GetPending(ctx, "a@b.com")
	require.NoError(t, err)
	require.Zero(t, pending.Attempts)

	// The old code is gone wholesale.
	_, err = svc.VerifyCode(ctx, "a@b.com", "123456")
	require.ErrorIs(t, err, ErrInvalidCode)

	session, err := svc.VerifyCode(ctx, "a@b.com", "654321")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", session.Address)
}

func TestLogoutClearsEverythingAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Login(ctx, "a@b.com", "123456", domain.Profile{})
	require.NoError(t, err)
	session, err := svc.VerifyCode(ctx, "a@b.com", "123456")
	require.NoError(t, err)

	// Start a second flow so logout has both records to clear.
	_, err = svc.Login(ctx, "a@b.com", "654321", domain.Profile{})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "a@b.com"))

	_, err = svc.VerifyCode(ctx, "a@b.com", "654321")
	require.ErrorIs(t, err, ErrNoPendingFlow)
	_, err = svc.SessionByID(ctx, session.ID)
	require.ErrorIs(t, err, ErrNoSession)

	// Logging out again is a no-op, not an error.
	require.NoError(t, svc.Logout(ctx, "a@b.com"))
}

func TestPendingUserProjection(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.PendingUser(ctx, "a@b.com")
	require.ErrorIs(t, err, ErrNoPendingFlow)

	_, err = svc.Login(ctx, "a@b.com", "123456", domain.Profile{DisplayName: "A"})
	require.NoError(t, err)

	proj, err := svc.PendingUser(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", proj.Address)
	require.True(t, proj.Delivered)
	require.Zero(t, proj.Attempts)

	// Expired flows project as absent and are cleared.
	require.NoError(t, svc.Store.Pending().PutPending(ctx, domain.PendingVerification{
		Address:  "a@b.com",
		Code:     "123456",
		IssuedAt: time.Now().UTC().Add(-time.Hour),
	}))
	_, err = svc.PendingUser(ctx, "a@b.com")
	require.ErrorIs(t, err, ErrNoPendingFlow)
}

func TestSessionExpiryTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	now := time.Now().UTC()
	expired := domain.Session{
		ID:          "01HEXPIRED0000000000000000",
		Address:     "a@b.com",
		DisplayName: "A",
		VerifiedAt:  now.Add(-48 * time.Hour),
		ExpiresAt:   now.Add(-time.Hour),
	}
	require.NoError(t, svc.Store.Sessions().CreateSession(ctx, expired))

	_, err := svc.SessionByID(ctx, expired.ID)
	require.ErrorIs(t, err, ErrNoSession)
}

// The concrete scenario from the product flow: wrong code once, then the
// right one.
func TestRegistrationScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	delivered, err := svc.Login(ctx, "a@b.com", "123456", domain.Profile{DisplayName: "A"})
	require.NoError(t, err)
	require.True(t, delivered)

	_, err = svc.VerifyCode(ctx, "a@b.com", "000000")
	require.ErrorIs(t, err, ErrInvalidCode)

	pending, err := svc.Store.Pending().GetPending(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, 1, pending.Attempts)

	session, err := svc.VerifyCode(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", session.Address)
	require.Equal(t, "A", session.DisplayName)

	_, err = svc.PendingUser(ctx, "a@b.com")
	require.ErrorIs(t, err, ErrNoPendingFlow)
}
