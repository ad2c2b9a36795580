package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mufassa12/contrivance/internal/domain/auth"
)

// SessionRepository is an in-memory implementation of auth.SessionRepository
type SessionRepository struct {
	mu             sync.Mutex
	sessions       map[uuid.UUID]*auth.Session
	sessionsByHash map[string]*auth.Session
}

// NewSessionRepository creates a new in-memory session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions:       make(map[uuid.UUID]*auth.Session),
		sessionsByHash: make(map[string]*auth.Session),
	}
}

func (r *SessionRepository) CreateSession(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := *session
	r.sessions[s.ID] = &s
	r.sessionsByHash[s.TokenHash] = &s
	return nil
}

func (r *SessionRepository) FindSessionByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessionsByHash[tokenHash]
	if !exists {
		return nil, auth.ErrSessionNotFound
	}
	s := *session
	return &s, nil
}

// ConsumeSession is the check-and-set behind refresh rotation: under
// the repository lock the session is revoked only if still usable, so
// exactly one of two concurrent refreshes wins.
func (r *SessionRepository) ConsumeSession(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[id]
	if !exists {
		return auth.ErrSessionNotFound
	}
	if session.IsRevoked || !time.Now().Before(session.ExpiresAt) {
		return auth.ErrSessionInvalid
	}
	session.IsRevoked = true
	return nil
}

func (r *SessionRepository) RevokeSession(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, exists := r.sessions[id]; exists {
		session.IsRevoked = true
	}
	return nil
}

func (r *SessionRepository) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, session := range r.sessions {
		if session.UserID == userID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (r *SessionRepository) CleanupExpiredSessions(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var deleted int64
	for id, session := range r.sessions {
		if session.IsRevoked || !now.Before(session.ExpiresAt) {
			delete(r.sessions, id)
			delete(r.sessionsByHash, session.TokenHash)
			deleted++
		}
	}
	return deleted, nil
}
