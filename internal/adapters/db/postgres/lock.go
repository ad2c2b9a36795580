package postgres

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LockManager provides distributed locks using PostgreSQL advisory
// locks, so background jobs like the session sweep run in exactly one
// process at a time.
type LockManager struct {
	pool *pgxpool.Pool
}

// NewLockManager constructs a LockManager
func NewLockManager(pool *pgxpool.Pool) *LockManager { return &LockManager{pool: pool} }

// hashKey converts a string key to a uint32 for advisory locks
func hashKey(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

// TryAcquire attempts an exclusive advisory lock without blocking.
// When acquired, the returned release func must be called.
func (l *LockManager) TryAcquire(ctx context.Context, key string) (func(context.Context) error, bool, error) {
	k := int64(hashKey(key))
	var acquired bool
	if err := l.pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", k).Scan(&acquired); err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		if _, err := l.pool.Exec(ctx, "SELECT pg_advisory_unlock($1)", k); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}
