package auth

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// CreateUser creates a new user
	CreateUser(ctx context.Context, user *User) error

	// FindUserByID retrieves a user by ID
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindUserByEmail retrieves a user by email
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// EmailExists reports whether an account with the email exists
	EmailExists(ctx context.Context, email string) (bool, error)

	// UpdateLastLogin stamps the user's last successful login
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// SessionRepository defines the interface for session persistence.
// Sessions are keyed by the hash of the refresh token; the raw token
// never reaches the store.
type SessionRepository interface {
	// CreateSession persists a new session record
	CreateSession(ctx context.Context, session *Session) error

	// FindSessionByTokenHash retrieves a session by refresh token hash.
	// Returns ErrSessionNotFound if absent.
	FindSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// ConsumeSession atomically revokes a session that is still usable.
	// Returns ErrSessionInvalid if the session was already revoked or
	// expired, so concurrent refreshes of one token succeed exactly once.
	ConsumeSession(ctx context.Context, id uuid.UUID) error

	// RevokeSession sets the revocation flag; idempotent
	RevokeSession(ctx context.Context, id uuid.UUID) error

	// RevokeAllUserSessions revokes every session owned by the user
	RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error

	// CleanupExpiredSessions removes expired and revoked rows,
	// returning the number deleted
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}
