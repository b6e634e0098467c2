package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kittipat-dev/unilib-api/internal/usecase"
)

// ForgotPasswordRequest is the recovery request payload for both scopes.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest carries the new password; the token travels in the
// URL path.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// PasswordResetHandler serves one recovery token scope. Two instances are
// mounted, one for the student/teacher flow and one for the admin flow.
type PasswordResetHandler struct {
	resetUsecase usecase.PasswordResetUsecase
	validator    *requestValidator
	respond      *responder
	production   bool
}

// NewPasswordResetHandler creates a PasswordResetHandler.
func NewPasswordResetHandler(
	resetUsecase usecase.PasswordResetUsecase,
	logger *zerolog.Logger,
	production bool,
) *PasswordResetHandler {
	return &PasswordResetHandler{
		resetUsecase: resetUsecase,
		validator:    newRequestValidator(),
		respond:      &responder{logger: logger, production: production},
		production:   production,
	}
}

func (h *PasswordResetHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	issue, err := h.resetUsecase.RequestReset(r.Context(), req.Email)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	payload := map[string]any{
		"message":   "Password reset token generated successfully",
		"expiresIn": "30 minutes",
	}

	// The plaintext token reaches production users only through the
	// notification channel; echoing it here would hand a reset capability to
	// anyone who can call the endpoint.
	if !h.production {
		payload["resetToken"] = issue.Token
		payload["resetURL"] = issue.ResetURL
		if issue.PreviewURL != "" {
			payload["previewUrl"] = issue.PreviewURL
		}
	}

	h.respond.JSON(w, http.StatusOK, payload)
}

func (h *PasswordResetHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	email, err := h.resetUsecase.VerifyToken(r.Context(), token)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Token is valid",
		"email":   email,
	})
}

func (h *PasswordResetHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req ResetPasswordRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	if err := h.resetUsecase.ResetPassword(r.Context(), token, req.Password); err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Password reset successful",
	})
}
