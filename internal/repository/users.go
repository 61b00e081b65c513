package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ASTROTRACKER_BACK-END/internal/models"
)

// UserRepository persists user accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.User, error)
	ConsumeResetToken(ctx context.Context, email, token, passwordHash string, now time.Time) (uuid.UUID, error)
}

// ProfileUpdate carries the optional fields of a profile edit; nil means unchanged
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	ProfilePicture *string
}

// Empty reports whether no field is set
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.ProfilePicture == nil
}

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active,
	profile_picture, password_reset_token, password_reset_token_expires, created_at, updated_at`

// PostgresUserRepository is the pgx implementation of UserRepository
type PostgresUserRepository struct {
	db DBTX
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&u.IsActive, &u.ProfilePicture, &u.PasswordResetToken, &u.PasswordResetTokenExpires,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// Create inserts a user; a duplicate email yields errs.ErrAlreadyExists
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active,
		 profile_picture, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, strings.ToLower(user.Email), user.PasswordHash, user.FirstName, user.LastName,
		user.Role, user.IsActive, user.ProfilePicture, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

// GetByID returns the user with the given id
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail returns the user with the given email, compared case-insensitively
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetByResetToken returns the user holding the given password reset token
func (r *PostgresUserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE password_reset_token = $1`, token))
	if err != nil {
		return nil, fmt.Errorf("get user by reset token: %w", err)
	}
	return u, nil
}

// EmailExists reports whether an account already uses email
func (r *PostgresUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, strings.ToLower(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// Update writes every mutable column of user
func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	ct, err := r.db.Exec(ctx,
		`UPDATE users SET email = $1, password_hash = $2, first_name = $3, last_name = $4,
		 role = $5, is_active = $6, profile_picture = $7, password_reset_token = $8,
		 password_reset_token_expires = $9, updated_at = $10
		 WHERE id = $11`,
		strings.ToLower(user.Email), user.PasswordHash, user.FirstName, user.LastName, user.Role,
		user.IsActive, user.ProfilePicture, user.PasswordResetToken, user.PasswordResetTokenExpires,
		user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("update user %s: %w", user.ID, translate(err))
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("update user %s: %w", user.ID, translate(pgx.ErrNoRows))
	}
	return nil
}

// UpdateProfile updates only the fields present in update and returns the stored user
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.User, error) {
	set := []string{}
	args := []any{}
	i := 1

	add := func(col string, v any) {
		set = append(set, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, v)
		i++
	}

	if update.FirstName != nil {
		add("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", *update.LastName)
	}
	if update.ProfilePicture != nil {
		add("profile_picture", *update.ProfilePicture)
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	add("updated_at", time.Now().UTC())

	q := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING `+userColumns, strings.Join(set, ", "), i)
	args = append(args, id)

	u, err := scanUser(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, fmt.Errorf("update profile %s: %w", id, err)
	}
	return u, nil
}

// ConsumeResetToken sets passwordHash and clears the reset token in one
// statement, only while token is still live for email. Concurrent callers
// race on the row; at most one wins and the rest get errs.ErrNotFound.
func (r *PostgresUserRepository) ConsumeResetToken(ctx context.Context, email, token, passwordHash string, now time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx,
		`UPDATE users SET password_hash = $1, password_reset_token = NULL,
		 password_reset_token_expires = NULL, updated_at = $2
		 WHERE email = $3 AND password_reset_token = $4 AND password_reset_token_expires > $2
		 RETURNING id`,
		passwordHash, now.UTC(), strings.ToLower(email), token).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume reset token: %w", translate(err))
	}
	return id, nil
}
