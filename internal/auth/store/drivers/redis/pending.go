// Package redis provides the ephemeral pending-verification store. Records
// are serialized as JSON under a key per address; redis TTLs act only as
// garbage collection; the policy expiry is enforced by the service layer so
// expired and absent flows stay distinguishable.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/4PPL8/PakGroccrry/internal/auth/domain"
	"github.com/4PPL8/PakGroccrry/internal/auth/store"

	"github.com/redis/go-redis/v9"
)

// Config for the pending-verification store.
type Config struct {
	Addr     string
	Username string
	Password string
	DB       int

	// Prefix namespaces the keys, default "auth:pending:".
	Prefix string

	// GCAfter is how long redis keeps a record before garbage-collecting it.
	// It must exceed the service's verification TTL or a too-eager eviction
	// would turn Expired failures into NoPendingFlow ones.
	GCAfter time.Duration
}

type Store struct {
	client  *redis.Client
	prefix  string
	gcAfter time.Duration
}

// NewStore connects to redis and verifies the connection.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "auth:pending:"
	}
	gcAfter := cfg.GCAfter
	if gcAfter <= 0 {
		gcAfter = time.Hour
	}

	return &Store{client: client, prefix: prefix, gcAfter: gcAfter}, nil
}

// Pending returns the ephemeral repository.
func (s *Store) Pending() store.PendingVerifications {
	return &pendingRepo{client: s.client, prefix: s.prefix, gcAfter: s.gcAfter}
}

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Store) Close() error { return s.client.Close() }

type pendingRepo struct {
	client  *redis.Client
	prefix  string
	gcAfter time.Duration
}

func (r *pendingRepo) key(address string) string {
	return r.prefix + address
}

func (r *pendingRepo) PutPending(ctx context.Context, p domain.PendingVerification) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(p.Address), data, r.gcAfter).Err()
}

func (r *pendingRepo) GetPending(ctx context.Context, address string) (domain.PendingVerification, error) {
	raw, err := r.client.Get(ctx, r.key(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PendingVerification{}, store.ErrNotFound
		}
		return domain.PendingVerification{}, err
	}

	var p domain.PendingVerification
	if err := json.Unmarshal(raw, &p); err != nil || p.Address == "" {
		// Corrupt record: clear the stale entry and report absence.
		_ = r.DeletePending(ctx, address)
		return domain.PendingVerification{}, store.ErrNotFound
	}
	return p, nil
}

func (r *pendingRepo) DeletePending(ctx context.Context, address string) error {
	return r.client.Del(ctx, r.key(address)).Err()
}
