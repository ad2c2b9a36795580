// Package memory provides in-memory repository implementations, used
// in tests and when the server runs without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mufassa12/contrivance/internal/domain/auth"
)

// UserRepository is an in-memory implementation of auth.UserRepository
type UserRepository struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*auth.User
	usersByEmail map[string]*auth.User
}

// NewUserRepository creates a new in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:        make(map[uuid.UUID]*auth.User),
		usersByEmail: make(map[string]*auth.User),
	}
}

func (r *UserRepository) CreateUser(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByEmail[user.Email]; exists {
		return auth.ErrEmailExists
	}
	u := *user
	r.users[u.ID] = &u
	r.usersByEmail[u.Email] = &u
	return nil
}

func (r *UserRepository) FindUserByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, auth.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (r *UserRepository) FindUserByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByEmail[email]
	if !exists {
		return nil, auth.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (r *UserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.usersByEmail[email]
	return exists, nil
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return auth.ErrUserNotFound
	}
	user.LastLoginAt = time.Now()
	return nil
}
