package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/4PPL8/PakGroccrry/internal/auth/domain"
	"github.com/4PPL8/PakGroccrry/internal/auth/store"
	"github.com/4PPL8/PakGroccrry/pkg/idx"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Sessions()

	now := time.Now().UTC().Truncate(time.Second)
	s := domain.Session{
		ID:          idx.New().String(),
		Address:     "a@b.com",
		DisplayName: "A",
		Phone:       "+9230000000",
		NewUser:     true,
		VerifiedAt:  now,
		ExpiresAt:   now.Add(30 * 24 * time.Hour),
	}

	require.NoError(t, repo.CreateSession(ctx, s))

	got, err := repo.GetSessionByID(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.Address, got.Address)
	require.Equal(t, s.DisplayName, got.DisplayName)
	require.True(t, got.NewUser)
	require.WithinDuration(t, s.ExpiresAt, got.ExpiresAt, time.Second)

	require.NoError(t, repo.DeleteSession(ctx, s.ID))
	_, err = repo.GetSessionByID(ctx, s.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteSessionsByAddress(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Sessions()

	now := time.Now().UTC()
	for range 2 {
		require.NoError(t, repo.CreateSession(ctx, domain.Session{
			ID:          idx.New().String(),
			Address:     "a@b.com",
			DisplayName: "A",
			VerifiedAt:  now,
			ExpiresAt:   now.Add(time.Hour),
		}))
	}
	other := domain.Session{
		ID:          idx.New().String(),
		Address:     "c@d.com",
		DisplayName: "C",
		VerifiedAt:  now,
		ExpiresAt:   now.Add(time.Hour),
	}
	require.NoError(t, repo.CreateSession(ctx, other))

	require.NoError(t, repo.DeleteSessionsByAddress(ctx, "a@b.com"))

	_, err := repo.GetSessionByID(ctx, other.ID)
	require.NoError(t, err)
}

func TestDeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Sessions()

	now := time.Now().UTC()
	expired := domain.Session{
		ID:          idx.New().String(),
		Address:     "old@b.com",
		DisplayName: "Old",
		VerifiedAt:  now.Add(-48 * time.Hour),
		ExpiresAt:   now.Add(-time.Hour),
	}
	live := domain.Session{
		ID:          idx.New().String(),
		Address:     "new@b.com",
		DisplayName: "New",
		VerifiedAt:  now,
		ExpiresAt:   now.Add(time.Hour),
	}
	require.NoError(t, repo.CreateSession(ctx, expired))
	require.NoError(t, repo.CreateSession(ctx, live))

	require.NoError(t, repo.DeleteExpiredSessions(ctx))

	_, err := repo.GetSessionByID(ctx, expired.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.GetSessionByID(ctx, live.ID)
	require.NoError(t, err)
}
