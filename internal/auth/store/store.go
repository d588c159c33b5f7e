package store

import (
	"context"
	"errors"

	"github.com/4PPL8/PakGroccrry/internal/auth/domain"
)

// ErrNotFound is returned by all repositories when a record is absent. An
// unparseable persisted record is reported the same way after the stale entry
// has been cleared.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence adapter seen by the service layer. It is split
// into two capability-scoped repositories: a durable one for authenticated
// sessions and an ephemeral one for in-flight verifications. Concrete drivers
// (sqlite, redis) implement the repositories; Composite glues them together.
type Store interface {
	Sessions() Sessions
	Pending() PendingVerifications

	// Ping verifies the underlying backends are reachable.
	Ping(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}

// Sessions is the durable store for authenticated sessions.
type Sessions interface {
	// CreateSession inserts a new session (id is provided by the app via ULID).
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID returns a session by id, including expired ones; expiry
	// policy is decided by the caller.
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// DeleteSession removes a single session.
	DeleteSession(ctx context.Context, id string) error

	// DeleteSessionsByAddress removes every session for an address (logout).
	DeleteSessionsByAddress(ctx context.Context, address string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context) error
}

// PendingVerifications is the ephemeral store for the single in-flight
// verification per address.
type PendingVerifications interface {
	// PutPending writes the record, unconditionally replacing any existing
	// flow for the same address.
	PutPending(ctx context.Context, p domain.PendingVerification) error

	// GetPending returns the current record for an address. Corrupt stored
	// data is cleared and reported as ErrNotFound.
	GetPending(ctx context.Context, address string) (domain.PendingVerification, error)

	// DeletePending removes the record for an address. Removing an absent
	// record is not an error.
	DeletePending(ctx context.Context, address string) error
}

// Composite combines a durable and an ephemeral driver into one Store.
type Composite struct {
	SessionStore Sessions
	PendingStore PendingVerifications

	// DatabasePing and CachePing report backend reachability. They are
	// consulted individually by the readiness probe; nil means not checked.
	DatabasePing func(context.Context) error
	CachePing    func(context.Context) error

	// Closers are the concrete drivers' shutdown hooks.
	Closers []func() error
}

func (c *Composite) Sessions() Sessions            { return c.SessionStore }
func (c *Composite) Pending() PendingVerifications { return c.PendingStore }

func (c *Composite) Ping(ctx context.Context) error {
	for _, ping := range []func(context.Context) error{c.DatabasePing, c.CachePing} {
		if ping == nil {
			continue
		}
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Composite) Close() error {
	var errs []error
	for _, close := range c.Closers {
		if err := close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
