// Package notify delivers one-time verification codes to contact addresses.
// The Sender capability is injected into the auth service so production SMTP
// delivery, the simulated dev sender, and test doubles are interchangeable.
package notify

import (
	"context"
	"fmt"
)

// Sender delivers a one-time code to an address. Implementations must be safe
// to call repeatedly for the same address (resend reuses the same path) and
// must honor ctx cancellation.
type Sender interface {
	Send(ctx context.Context, address, code string) error
}

// DeliveryError reports that a send attempt failed. Callers distinguish it
// from infrastructure errors: a failed delivery is an expected outcome the
// verification flow carries on through, not an abort.
type DeliveryError struct {
	Address string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify: delivery to %s failed: %v", e.Address, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
