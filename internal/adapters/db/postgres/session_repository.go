package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mufassa12/contrivance/internal/domain/auth"
)

// SessionRepository is a Postgres implementation of auth.SessionRepository
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository constructs a SessionRepository
func NewSessionRepository(db *sql.DB) *SessionRepository { return &SessionRepository{db: db} }

func (r *SessionRepository) CreateSession(ctx context.Context, session *auth.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_sessions (id,user_id,token_hash,expires_at,is_revoked,created_at) VALUES ($1,$2,$3,$4,false,$5)`,
		session.ID, session.UserID, session.TokenHash, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	var s auth.Session
	err := r.db.QueryRowContext(ctx,
		`SELECT id,user_id,token_hash,expires_at,is_revoked,created_at FROM user_sessions WHERE token_hash=$1`,
		tokenHash).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.IsRevoked, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

// ConsumeSession revokes the session only if it is still usable. The
// conditional UPDATE makes rotation atomic: of two concurrent
// refreshes presenting the same token, exactly one affects a row.
func (r *SessionRepository) ConsumeSession(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_sessions SET is_revoked=true WHERE id=$1 AND is_revoked=false AND expires_at > $2`,
		id, time.Now())
	if err != nil {
		return fmt.Errorf("consume session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume session: %w", err)
	}
	if n == 0 {
		return auth.ErrSessionInvalid
	}
	return nil
}

func (r *SessionRepository) RevokeSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE user_sessions SET is_revoked=true WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *SessionRepository) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE user_sessions SET is_revoked=true WHERE user_id=$1`, userID)
	if err != nil {
		return fmt.Errorf("revoke all sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at < $1 OR is_revoked = true`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	return res.RowsAffected()
}
