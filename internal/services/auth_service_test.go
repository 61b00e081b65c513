package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ASTROTRACKER_BACK-END/internal/config"
	"ASTROTRACKER_BACK-END/internal/dto"
	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/middleware"
	"ASTROTRACKER_BACK-END/internal/testutil/fakes"
)

const testPassword = "Str0ng!Pass"

type authFixture struct {
	svc    *AuthService
	users  *fakes.UserRepository
	mailer *fakes.Mailer
	now    time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := config.Default()
	cfg.JWT.Secret = "test-secret-with-enough-length-123456"
	cfg.Email.FrontendURL = "http://localhost:3000"

	f := &authFixture{
		users:  fakes.NewUserRepository(),
		mailer: &fakes.Mailer{},
		now:    time.Now().UTC(),
	}
	f.svc = NewAuthService(f.users, f.mailer, cfg, nil)
	f.svc.hashCost = bcrypt.MinCost
	f.svc.now = func() time.Time { return f.now }
	f.svc.newToken = func() string { return "reset-token-1" }
	return f
}

func (f *authFixture) register(t *testing.T, email string) dto.RegisterRequest {
	t.Helper()
	req := dto.RegisterRequest{
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FirstName:       "Ada",
		LastName:        "Lovelace",
	}
	_, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)
	return req
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, dto.RegisterRequest{
		Email:           "  Ada@Example.com ",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FirstName:       "Ada",
		LastName:        "Lovelace",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "User", user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, testPassword, user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(testPassword)))
}

func TestAuthService_RegisterRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *dto.RegisterRequest)
		wantErr error
	}{
		{"weak password", func(r *dto.RegisterRequest) { r.Password, r.ConfirmPassword = "weakpass", "weakpass" }, errs.ErrInvalidInput},
		{"password over bcrypt limit", func(r *dto.RegisterRequest) {
			r.Password = testPassword + strings.Repeat("x", 62)
			r.ConfirmPassword = r.Password
		}, errs.ErrInvalidInput},
		{"password mismatch", func(r *dto.RegisterRequest) { r.ConfirmPassword = "Other1!pass" }, errs.ErrInvalidInput},
		{"bad email", func(r *dto.RegisterRequest) { r.Email = "not-an-email" }, errs.ErrInvalidInput},
		{"short name", func(r *dto.RegisterRequest) { r.FirstName = "A" }, errs.ErrInvalidInput},
		{"duplicate email", func(r *dto.RegisterRequest) { r.Email = "TAKEN@example.com" }, errs.ErrAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			f.register(t, "taken@example.com")

			req := dto.RegisterRequest{
				Email:           "new@example.com",
				Password:        testPassword,
				ConfirmPassword: testPassword,
				FirstName:       "Grace",
				LastName:        "Hopper",
			}
			tt.mutate(&req)

			_, err := f.svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com")

	res, err := f.svc.Login(ctx, dto.LoginRequest{Email: "ADA@example.com", Password: testPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	claims, err := middleware.ValidateToken(res.Token, f.svc.jwt)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada Lovelace", claims.Name)

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: "Wrong1!pass"})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: testPassword})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestAuthService_LoginInactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com")

	user, err := f.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.DeactivateAccount(ctx, user.ID))

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: testPassword})
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestAuthService_ValidateToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com")

	res, err := f.svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: testPassword})
	require.NoError(t, err)

	user, err := f.svc.ValidateToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)

	_, err = f.svc.ValidateToken(ctx, "")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = f.svc.ValidateToken(ctx, res.Token+"x")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	require.NoError(t, f.svc.DeactivateAccount(ctx, user.ID))
	_, err = f.svc.ValidateToken(ctx, res.Token)
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com")

	require.NoError(t, f.svc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "ada@example.com"}))

	mail, ok := f.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", mail.To)
	assert.Equal(t, "Ada Lovelace", mail.Name)
	assert.True(t, strings.HasPrefix(mail.Link, "http://localhost:3000/reset-password?"))
	assert.Contains(t, mail.Link, "token=reset-token-1")

	valid, err := f.svc.ValidateResetToken(ctx, "reset-token-1")
	require.NoError(t, err)
	assert.True(t, valid)

	const newPassword = "N3w!Password"
	reset := dto.ResetPasswordRequest{
		Email:           "ada@example.com",
		Token:           "reset-token-1",
		NewPassword:     newPassword,
		ConfirmPassword: newPassword,
	}
	require.NoError(t, f.svc.ResetPassword(ctx, reset))

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: newPassword})
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: testPassword})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	// single use
	err = f.svc.ResetPassword(ctx, reset)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	valid, err = f.svc.ValidateResetToken(ctx, "reset-token-1")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestAuthService_ConcurrentResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com")
	require.NoError(t, f.svc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "ada@example.com"}))

	const workers = 8
	passwords := make([]string, workers)
	results := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		passwords[i] = fmt.Sprintf("N3w!Password%d", i)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.svc.ResetPassword(ctx, dto.ResetPasswordRequest{
				Email:           "ada@example.com",
				Token:           "reset-token-1",
				NewPassword:     passwords[i],
				ConfirmPassword: passwords[i],
			})
		}(i)
	}
	wg.Wait()

	winner := -1
	for i, err := range results {
		if err == nil {
			require.Equal(t, -1, winner, "more than one reset succeeded")
			winner = i
			continue
		}
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	}
	require.NotEqual(t, -1, winner)

	_, err := f.svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: passwords[winner]})
	assert.NoError(t, err)
}

func TestAuthService_ResetTokenExpires(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com")

	require.NoError(t, f.svc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "ada@example.com"}))
	f.now = f.now.Add(time.Hour + time.Second)

	valid, err := f.svc.ValidateResetToken(ctx, "reset-token-1")
	require.NoError(t, err)
	assert.False(t, valid)

	err = f.svc.ResetPassword(ctx, dto.ResetPasswordRequest{
		Email:           "ada@example.com",
		Token:           "reset-token-1",
		NewPassword:     "N3w!Password",
		ConfirmPassword: "N3w!Password",
	})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestAuthService_ForgotPasswordIsSilent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "nobody@example.com"}))
	assert.Empty(t, f.mailer.Sent)

	f.register(t, "ada@example.com")
	f.mailer.Err = errors.New("smtp down")
	assert.NoError(t, f.svc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "ada@example.com"}))

	_, err := f.svc.ValidateResetToken(ctx, "")
	assert.NoError(t, err)
}

func TestAuthService_Profile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com")

	user, err := f.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)

	name := "  Augusta "
	updated, err := f.svc.UpdateProfile(ctx, user.ID, dto.UpdateProfileRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName)

	_, err = f.svc.UpdateProfile(ctx, user.ID, dto.UpdateProfileRequest{})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	updated, err = f.svc.UpdateProfilePicture(ctx, user.ID, dto.UpdateProfilePictureRequest{ProfilePicture: "https://img.test/ada.png"})
	require.NoError(t, err)
	require.NotNil(t, updated.ProfilePicture)
	assert.Equal(t, "https://img.test/ada.png", *updated.ProfilePicture)

	got, err := f.svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", got.FirstName)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com")

	user, err := f.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, user.ID, dto.ChangePasswordRequest{
		CurrentPassword: "Wrong1!pass",
		NewPassword:     "N3w!Password",
		ConfirmPassword: "N3w!Password",
	})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	require.NoError(t, f.svc.ChangePassword(ctx, user.ID, dto.ChangePasswordRequest{
		CurrentPassword: testPassword,
		NewPassword:     "N3w!Password",
		ConfirmPassword: "N3w!Password",
	}))

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: "N3w!Password"})
	assert.NoError(t, err)
}
