package notify

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSimulatedSenderOutcomes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("zero failure rate always delivers", func(t *testing.T) {
		s := &SimulatedSender{FailureRate: 0}
		require.NoError(t, s.Send(ctx, "a@b.com", "123456"))
	})

	t.Run("full failure rate always fails with DeliveryError", func(t *testing.T) {
		s := &SimulatedSender{FailureRate: 1}
		err := s.Send(ctx, "a@b.com", "123456")

		var de *DeliveryError
		require.ErrorAs(t, err, &de)
		require.Equal(t, "a@b.com", de.Address)
	})

	t.Run("pinned rand source is deterministic", func(t *testing.T) {
		src := rand.New(rand.NewPCG(1, 2))
		s := &SimulatedSender{FailureRate: 0.5, Rand: src}

		want := rand.New(rand.NewPCG(1, 2)).Float64() < 0.5
		err := s.Send(ctx, "a@b.com", "123456")
		require.Equal(t, want, err != nil)
	})
}

func TestSimulatedSenderHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	s := &SimulatedSender{Latency: time.Second}
	err := s.Send(ctx, "a@b.com", "123456")

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	require.True(t, errors.Is(de.Err, context.DeadlineExceeded))
}
