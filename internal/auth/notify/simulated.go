package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// SimulatedSender fakes email delivery for local development: it waits a
// configurable latency, fails a configurable fraction of the time, and logs
// the code instead of sending anything.
type SimulatedSender struct {
	Latency     time.Duration // per-send artificial delay
	FailureRate float64       // 0.0 always succeeds, 1.0 always fails
	Logger      *slog.Logger

	// Rand lets tests pin the outcome; nil uses the shared global source.
	Rand *rand.Rand
}

func (s *SimulatedSender) Send(ctx context.Context, address, code string) error {
	if s.Latency > 0 {
		select {
		case <-time.After(s.Latency):
		case <-ctx.Done():
			return &DeliveryError{Address: address, Err: ctx.Err()}
		}
	}

	roll := rand.Float64()
	if s.Rand != nil {
		roll = s.Rand.Float64()
	}
	if roll < s.FailureRate {
		return &DeliveryError{Address: address, Err: fmt.Errorf("simulated delivery failure")}
	}

	if s.Logger != nil {
		s.Logger.Info("simulated verification email", "address", address, "code", code)
	}
	return nil
}
