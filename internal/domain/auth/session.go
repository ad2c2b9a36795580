package auth

import (
	"time"

	"github.com/google/uuid"
)

// Session binds the hash of a refresh token to a user. The raw refresh
// token is never stored; refreshing presents the token, which is hashed
// and looked up here.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"` // SHA-256 of the refresh token, never the token itself
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// IsUsable reports whether the session can still be redeemed:
// not revoked and not past its expiry.
func (s *Session) IsUsable() bool {
	return !s.IsRevoked && time.Now().Before(s.ExpiresAt)
}
