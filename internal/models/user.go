package models

import (
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
)

// Default role assigned at registration
const RoleUser = "User"

// User represents an account in the users table
type User struct {
	ID                        uuid.UUID  `json:"id" db:"id"`
	Email                     string     `json:"email" db:"email"`
	PasswordHash              string     `json:"-" db:"password_hash"` // Hidden from JSON responses
	FirstName                 string     `json:"first_name" db:"first_name"`
	LastName                  string     `json:"last_name" db:"last_name"`
	Role                      string     `json:"role" db:"role"`
	IsActive                  bool       `json:"is_active" db:"is_active"`
	ProfilePicture            *string    `json:"profile_picture" db:"profile_picture"`
	PasswordResetToken        *string    `json:"-" db:"password_reset_token"`
	PasswordResetTokenExpires *time.Time `json:"-" db:"password_reset_token_expires"`
	CreatedAt                 time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name the way it is carried in the token
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HasValidResetToken reports whether token matches the stored reset token
// and the token has not expired at now.
func (u *User) HasValidResetToken(token string, now time.Time) bool {
	if u.PasswordResetToken == nil || u.PasswordResetTokenExpires == nil || token == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*u.PasswordResetToken), []byte(token)) != 1 {
		return false
	}
	return u.PasswordResetTokenExpires.After(now)
}
