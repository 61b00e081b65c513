package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ASTROTRACKER_BACK-END/internal/config"
	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/models"
	"ASTROTRACKER_BACK-END/internal/utils"
)

// JWTClaims represents the claims in the JWT token
type JWTClaims struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim
func (c *JWTClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// GenerateToken generates a JWT token for the given user
func GenerateToken(user *models.User, cfg *config.JWTConfig) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(cfg.AccessTokenTTL)

	claims := JWTClaims{
		Email:     user.Email,
		Name:      user.FullName(),
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates signature, issuer, audience and expiry of a JWT
// and returns its claims. Failures wrap errs.ErrUnauthorized.
func ValidateToken(tokenString string, cfg *config.JWTConfig) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnauthorized, jwt.ErrTokenMalformed)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: invalid subject", errs.ErrUnauthorized)
	}
	return claims, nil
}

// UserLookup resolves the account behind a token
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware validates JWT tokens in the Authorization header and
// rejects tokens whose account is gone or deactivated.
func AuthMiddleware(next http.HandlerFunc, cfg *config.JWTConfig, users UserLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		tokenParts := strings.Fields(authHeader)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid authorization header format")
			return
		}

		claims, err := ValidateToken(tokenParts[1], cfg)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid token")
			return
		}
		userID, _ := claims.UserID()

		if users != nil {
			user, err := users.GetByID(r.Context(), userID)
			switch {
			case errors.Is(err, errs.ErrNotFound):
				utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "User no longer exists")
				return
			case err != nil:
				utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", "Internal server error")
				return
			case !user.IsActive:
				utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "User account is inactive")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, claims)))
	}
}
