// Package auth implements the token/session service: JWT issuance,
// stateless validation, refresh-token rotation, and session revocation.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Mufassa12/contrivance/internal/config"
	"github.com/Mufassa12/contrivance/internal/domain/auth"
	"github.com/Mufassa12/contrivance/internal/metrics"
)

// Service issues, validates, refreshes, and revokes token pairs.
// Access tokens are stateless: Validate never consults the store, so a
// revoked session's access token stays honored until it expires (the
// bound is AccessTokenTTL). Only refresh triggers a store lookup.
type Service struct {
	cfg      *config.AuthConfig
	users    auth.UserRepository
	sessions auth.SessionRepository
}

// NewService creates a new token/session service
func NewService(cfg *config.AuthConfig, users auth.UserRepository, sessions auth.SessionRepository) *Service {
	return &Service{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
	}
}

// LoginResponse is returned by Register, Login, and Refresh
type LoginResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresAt    time.Time         `json:"expires_at"`
	User         auth.UserResponse `json:"user"`
}

// Register creates an account and issues the first token pair
func (s *Service) Register(ctx context.Context, req auth.RegisterRequest) (*LoginResponse, error) {
	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, auth.ErrEmailExists
	}

	if err := ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &auth.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         auth.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.loginResponse(ctx, user)
}

// Login verifies credentials and issues a token pair
func (s *Service) Login(ctx context.Context, req auth.LoginRequest) (*LoginResponse, error) {
	user, err := s.users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			metrics.AuthFailures.WithLabelValues("credentials").Inc()
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive || !VerifyPassword(req.Password, user.PasswordHash) {
		metrics.AuthFailures.WithLabelValues("credentials").Inc()
		return nil, auth.ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to update last login")
	}

	return s.loginResponse(ctx, user)
}

// Issue creates a fresh session for the user and signs a token pair
// bound to it. The store receives only the SHA-256 hash of the refresh
// token.
func (s *Service) Issue(ctx context.Context, user *auth.User) (*auth.TokenPair, error) {
	sessionID := uuid.New()
	now := time.Now()
	accessExpiry := now.Add(s.cfg.AccessTokenTTL)
	refreshExpiry := now.Add(s.cfg.RefreshTokenTTL)

	accessToken, err := s.signToken(user, sessionID, now, accessExpiry)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.signToken(user, sessionID, now, refreshExpiry)
	if err != nil {
		return nil, err
	}

	session := &auth.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: HashToken(refreshToken),
		ExpiresAt: refreshExpiry,
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	metrics.SessionsIssued.Inc()

	return &auth.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		SessionID:        sessionID,
		ExpiresAt:        accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// Validate verifies signature and expiry only; it never consults the
// store. Returns ErrTokenExpired or ErrTokenMalformed.
func (s *Service) Validate(tokenString string) (*auth.Claims, error) {
	claims := &auth.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, auth.ErrTokenExpired
		}
		return nil, auth.ErrTokenMalformed
	}
	if !token.Valid {
		return nil, auth.ErrTokenMalformed
	}
	return claims, nil
}

// Refresh rotates a refresh token: the presented token's session is
// consumed atomically (single use; of two concurrent refreshes exactly
// one wins) and a brand-new pair bound to a new session is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	if _, err := s.Validate(refreshToken); err != nil {
		return nil, err
	}

	session, err := s.sessions.FindSessionByTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if !session.IsUsable() {
		metrics.AuthFailures.WithLabelValues("session").Inc()
		return nil, auth.ErrSessionInvalid
	}

	// Revoke-if-usable: the loser of a concurrent refresh race fails here.
	if err := s.sessions.ConsumeSession(ctx, session.ID); err != nil {
		metrics.AuthFailures.WithLabelValues("session").Inc()
		return nil, err
	}
	metrics.SessionsRevoked.Inc()

	user, err := s.users.FindUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	return s.loginResponse(ctx, user)
}

// Revoke sets the session's revocation flag; idempotent
func (s *Service) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.RevokeSession(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	metrics.SessionsRevoked.Inc()
	return nil
}

// RevokeAll revokes every session owned by the user ("log out everywhere")
func (s *Service) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.RevokeAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("revoke all sessions: %w", err)
	}
	return nil
}

// GetUser loads a user by ID
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*auth.User, error) {
	return s.users.FindUserByID(ctx, userID)
}

func (s *Service) loginResponse(ctx context.Context, user *auth.User) (*LoginResponse, error) {
	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         user.Response(),
	}, nil
}

func (s *Service) signToken(user *auth.User, sessionID uuid.UUID, issuedAt, expiresAt time.Time) (string, error) {
	claims := auth.Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// HashToken returns the hex SHA-256 of a token, the only form in which
// refresh tokens ever reach the session store.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
