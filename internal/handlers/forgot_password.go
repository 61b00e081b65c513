package handlers

import (
	"log/slog"
	"net/http"

	"ASTROTRACKER_BACK-END/internal/dto"
	"ASTROTRACKER_BACK-END/internal/services"
	"ASTROTRACKER_BACK-END/internal/utils"
)

const forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent"

// ForgotPasswordHandler handles the password reset flow
type ForgotPasswordHandler struct {
	auth   *services.AuthService
	logger *slog.Logger
}

// NewForgotPasswordHandler creates a new ForgotPasswordHandler instance
func NewForgotPasswordHandler(auth *services.AuthService, logger *slog.Logger) *ForgotPasswordHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForgotPasswordHandler{auth: auth, logger: logger}
}

// ForgotPassword emails a reset link to the account owner
// @Summary Request password reset
// @Description Emails a single-use reset link valid for one hour. The response is the same whether or not the email is registered.
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Email address"
// @Success 200 {object} dto.MessageResponse "Reset requested"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/forgot-password [post]
func (h *ForgotPasswordHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	var req dto.ForgotPasswordRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Success: true, Message: forgotPasswordMessage})
}

// ResetPassword sets a new password using a reset token
// @Summary Reset password
// @Description Replace the password with a valid reset token; the token is consumed
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Email, token and new password"
// @Success 200 {object} dto.MessageResponse "Password reset successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/reset-password [post]
func (h *ForgotPasswordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	var req dto.ResetPasswordRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Success: true, Message: "Password has been reset successfully"})
}

// ValidateResetToken checks a reset token before showing the reset form
// @Summary Validate reset token
// @Tags authentication
// @Produce json
// @Param token path string true "Reset token"
// @Success 200 {object} dto.MessageResponse
// @Router /api/auth/validate-reset-token/{token} [get]
func (h *ForgotPasswordHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	valid, err := h.auth.ValidateResetToken(r.Context(), r.PathValue("token"))
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	if !valid {
		utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Success: false, Message: "Invalid or expired reset token"})
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Success: true, Message: "Reset token is valid"})
}
