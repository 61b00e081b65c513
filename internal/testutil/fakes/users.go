// Package fakes provides in-memory stand-ins for the repositories and the
// NASA clients, for service and handler tests.
package fakes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/models"
	"ASTROTRACKER_BACK-END/internal/repository"
)

// UserRepository is an in-memory repository.UserRepository
type UserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates an empty UserRepository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[uuid.UUID]models.User{}}
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("insert user: %w", errs.ErrAlreadyExists)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", id, errs.ErrNotFound)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", errs.ErrNotFound)
}

func (r *UserRepository) GetByResetToken(_ context.Context, token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by reset token: %w", errs.ErrNotFound)
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("update user %s: %w", user.ID, errs.ErrNotFound)
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id uuid.UUID, update repository.ProfileUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("update profile %s: %w", id, errs.ErrNotFound)
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.ProfilePicture != nil {
		pic := *update.ProfilePicture
		u.ProfilePicture = &pic
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return &u, nil
}

func (r *UserRepository) ConsumeResetToken(_ context.Context, email, token, passwordHash string, now time.Time) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.Email != strings.ToLower(email) {
			continue
		}
		if u.PasswordResetToken == nil || *u.PasswordResetToken != token ||
			u.PasswordResetTokenExpires == nil || !u.PasswordResetTokenExpires.After(now) {
			break
		}
		u.PasswordHash = passwordHash
		u.PasswordResetToken = nil
		u.PasswordResetTokenExpires = nil
		u.UpdatedAt = now.UTC()
		r.users[id] = u
		return id, nil
	}
	return uuid.Nil, fmt.Errorf("consume reset token: %w", errs.ErrNotFound)
}
