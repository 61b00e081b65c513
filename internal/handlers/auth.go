package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ASTROTRACKER_BACK-END/internal/dto"
	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/middleware"
	"ASTROTRACKER_BACK-END/internal/services"
	"ASTROTRACKER_BACK-END/internal/utils"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth   *services.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(auth *services.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return false
	}
	w.Header().Set("Allow", method)
	utils.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	return true
}

// Register handles user registration
// @Summary Register a new user
// @Description Create an active account with the default role
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration data"
// @Success 201 {object} dto.RegisterResponse "User created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 409 {object} dto.ErrorResponse "User already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	var req dto.RegisterRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.RegisterResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		Message:   "User registered successfully",
	})
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate with email and password and receive a JWT
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "User login credentials"
// @Success 200 {object} dto.LoginResponse "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Account inactive"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	var req dto.LoginRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.LoginResponse{
		Token:     res.Token,
		User:      dto.NewUserResponse(res.User),
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// ValidateToken reports whether a JWT is still usable
// @Summary Validate token
// @Description Verify a JWT and resolve the user it was issued for
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.ValidateTokenRequest true "Token to validate"
// @Success 200 {object} dto.ValidateTokenResponse
// @Failure 400 {object} dto.ErrorResponse "Token missing"
// @Router /api/auth/validate [post]
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	var req dto.ValidateTokenRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.ValidateToken(r.Context(), req.Token)
	switch {
	case err == nil:
		resp := dto.NewUserResponse(user)
		utils.WriteJSONResponse(w, http.StatusOK, dto.ValidateTokenResponse{
			IsValid: true,
			User:    &resp,
			Message: "Token is valid",
		})
	case errors.Is(err, errs.ErrUnauthorized), errors.Is(err, errs.ErrForbidden):
		utils.WriteJSONResponse(w, http.StatusOK, dto.ValidateTokenResponse{
			IsValid: false,
			Message: "Token is invalid or expired",
		})
	default:
		utils.WriteServiceError(w, r, h.logger, err)
	}
}

// GetProfile returns the current user's profile
// @Summary Get user profile
// @Description Get the profile of the authenticated user
// @Tags authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse "User profile"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /api/auth/profile [get]
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "User ID not found in context")
		return
	}

	user, err := h.auth.GetProfile(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewUserResponse(user))
}

// UpdateProfile changes the first and/or last name
// @Summary Update user profile
// @Tags authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} dto.UserResponse "Updated profile"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /api/auth/profile [put]
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPut) {
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "User ID not found in context")
		return
	}

	var req dto.UpdateProfileRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewUserResponse(user))
}

// UpdateProfilePicture sets the profile picture
// @Summary Update profile picture
// @Tags authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfilePictureRequest true "Picture URL or data URI"
// @Success 200 {object} dto.UserResponse "Updated profile"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /api/auth/profile-picture [put]
func (h *AuthHandler) UpdateProfilePicture(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPut) {
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "User ID not found in context")
		return
	}

	var req dto.UpdateProfilePictureRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.UpdateProfilePicture(r.Context(), userID, req)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewUserResponse(user))
}

// ChangePassword replaces the password of the signed-in user
// @Summary Change password
// @Tags authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Current password is incorrect"
// @Router /api/auth/change-password [put]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPut) {
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "User ID not found in context")
		return
	}

	var req dto.ChangePasswordRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), userID, req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Success: true, Message: "Password changed successfully"})
}

// DeleteAccount deactivates the signed-in user's account
// @Summary Delete account
// @Description Soft-deletes the account; the user can no longer sign in
// @Tags authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /api/auth/account [delete]
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodDelete) {
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "User ID not found in context")
		return
	}

	if err := h.auth.DeactivateAccount(r.Context(), userID); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Success: true, Message: "Account deleted successfully"})
}
