// Package services holds the business rules of the API. Handlers decode and
// encode; services validate, talk to repositories and external systems, and
// return errors from the errs taxonomy.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ASTROTRACKER_BACK-END/internal/config"
	"ASTROTRACKER_BACK-END/internal/dto"
	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/middleware"
	"ASTROTRACKER_BACK-END/internal/models"
	"ASTROTRACKER_BACK-END/internal/repository"
	"ASTROTRACKER_BACK-END/internal/utils"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid email or password", errs.ErrUnauthorized)

var errInvalidResetToken = fmt.Errorf("%w: invalid or expired reset token", errs.ErrInvalidInput)

// LoginResult is a signed access token and the user it was issued for
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// AuthService implements registration, login, token validation, password
// reset and profile management.
type AuthService struct {
	users       repository.UserRepository
	mailer      utils.Mailer
	jwt         *config.JWTConfig
	frontendURL string
	logger      *slog.Logger

	hashCost int
	now      func() time.Time
	newToken func() string
}

// NewAuthService creates a new AuthService
func NewAuthService(users repository.UserRepository, mailer utils.Mailer, cfg *config.Config, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:       users,
		mailer:      mailer,
		jwt:         &cfg.JWT,
		frontendURL: cfg.Email.FrontendURL,
		logger:      logger,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
		newToken:    func() string { return uuid.NewString() },
	}
}

// Register creates an active account with the default role
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email is already registered", errs.ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: email is already registered", errs.ErrAlreadyExists)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*LoginResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user account is inactive", errs.ErrForbidden)
	}

	token, expiresAt, err := middleware.GenerateToken(user, s.jwt)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ValidateToken checks a JWT and resolves the active user it names
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: token is required", errs.ErrInvalidInput)
	}

	claims, err := middleware.ValidateToken(token, s.jwt)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject", errs.ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", errs.ErrUnauthorized)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user account is inactive", errs.ErrForbidden)
	}
	return user, nil
}

// ForgotPassword stores a fresh reset token and emails the reset link.
// Unknown or inactive accounts are ignored so callers cannot probe emails.
func (s *AuthService) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsActive {
		s.logger.InfoContext(ctx, "password reset requested for inactive user", "user_id", user.ID)
		return nil
	}

	token := s.newToken()
	expires := s.now().UTC().Add(s.jwt.ResetTokenTTL)
	user.PasswordResetToken = &token
	user.PasswordResetTokenExpires = &expires
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	link := utils.ResetLink(s.frontendURL, token, user.Email)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.FullName(), link); err != nil {
		s.logger.ErrorContext(ctx, "failed to send password reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword replaces the password when the token matches and has not
// expired. The token is consumed in the same write as the new hash, so it
// works only once even under concurrent requests.
func (s *AuthService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errInvalidResetToken
		}
		return err
	}
	if !user.HasValidResetToken(req.Token, s.now()) {
		return errInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	id, err := s.users.ConsumeResetToken(ctx, user.Email, req.Token, string(hash), s.now())
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errInvalidResetToken
		}
		return err
	}

	s.logger.InfoContext(ctx, "password reset", "user_id", id)
	return nil
}

// ValidateResetToken reports whether token is a live reset token
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.HasValidResetToken(token, s.now()), nil
}

// GetProfile returns the user with the given id
func (s *AuthService) GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile changes the provided name fields
func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, req dto.UpdateProfileRequest) (*models.User, error) {
	if req.FirstName != nil {
		v := strings.TrimSpace(*req.FirstName)
		req.FirstName = &v
	}
	if req.LastName != nil {
		v := strings.TrimSpace(*req.LastName)
		req.LastName = &v
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	update := repository.ProfileUpdate{FirstName: req.FirstName, LastName: req.LastName}
	if update.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", errs.ErrInvalidInput)
	}
	return s.users.UpdateProfile(ctx, id, update)
}

// UpdateProfilePicture sets the profile picture URL or data URI
func (s *AuthService) UpdateProfilePicture(ctx context.Context, id uuid.UUID, req dto.UpdateProfilePictureRequest) (*models.User, error) {
	req.ProfilePicture = strings.TrimSpace(req.ProfilePicture)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	return s.users.UpdateProfile(ctx, id, repository.ProfileUpdate{ProfilePicture: &req.ProfilePicture})
}

// ChangePassword replaces the password after verifying the current one
func (s *AuthService) ChangePassword(ctx context.Context, id uuid.UUID, req dto.ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return fmt.Errorf("%w: current password is incorrect", errs.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	return s.users.Update(ctx, user)
}

// DeactivateAccount soft-deletes the account
func (s *AuthService) DeactivateAccount(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	user.IsActive = false
	user.PasswordResetToken = nil
	user.PasswordResetTokenExpires = nil
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "account deactivated", "user_id", id)
	return nil
}
