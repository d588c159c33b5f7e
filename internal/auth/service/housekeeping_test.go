package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/4PPL8/PakGroccrry/internal/auth/domain"
	"github.com/4PPL8/PakGroccrry/pkg/idx"

	"github.com/stretchr/testify/require"
)

func TestHousekeepingSweepsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	now := time.Now().UTC()
	expired := domain.Session{
		ID:          idx.New().String(),
		Address:     "old@b.com",
		DisplayName: "Old",
		VerifiedAt:  now.Add(-48 * time.Hour),
		ExpiresAt:   now.Add(-time.Hour),
	}
	require.NoError(t, svc.Store.Sessions().CreateSession(ctx, expired))

	hk := NewHousekeepingService(svc.Store, slog.Default(), time.Hour)
	hk.Start() // sweeps once immediately
	hk.Stop()

	_, err := svc.Store.Sessions().GetSessionByID(ctx, expired.ID)
	require.Error(t, err)
}
