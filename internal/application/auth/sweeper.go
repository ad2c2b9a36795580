package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Locker guards the sweep so only one process runs it at a time when
// several share a database. Satisfied by the Postgres advisory-lock
// manager; nil means sweep unguarded (single process, in-memory store).
type Locker interface {
	TryAcquire(ctx context.Context, key string) (release func(context.Context) error, acquired bool, err error)
}

const sweepLockKey = "session-sweep"

// StartSweeper periodically deletes expired and revoked session rows.
// Blocks until ctx is cancelled; run it in its own goroutine.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration, locker Locker) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, locker)
		}
	}
}

func (s *Service) sweep(ctx context.Context, locker Locker) {
	if locker != nil {
		release, acquired, err := locker.TryAcquire(ctx, sweepLockKey)
		if err != nil {
			log.Error().Err(err).Msg("failed to acquire sweep lock")
			return
		}
		if !acquired {
			return // another process is sweeping
		}
		defer func() {
			if err := release(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to release sweep lock")
			}
		}()
	}

	deleted, err := s.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("session cleanup failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("cleaned up expired sessions")
	}
}
