package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kittipat-dev/unilib-api/internal/model"
	"github.com/kittipat-dev/unilib-api/internal/usecase"
)

// OTPRequest asks for a fresh one-time code.
type OTPRequest struct {
	Email   string `json:"email"   validate:"required,email"`
	Purpose string `json:"purpose" validate:"omitempty"`
}

// OTPVerifyRequest submits a code for verification.
type OTPVerifyRequest struct {
	Email   string `json:"email"   validate:"required,email"`
	OTP     string `json:"otp"     validate:"required,len=6,numeric"`
	Purpose string `json:"purpose" validate:"omitempty"`
}

// OTPResetPasswordRequest consumes a code to set a new password.
type OTPResetPasswordRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	OTP         string `json:"otp"         validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// OTPHandler serves the one-time-passcode endpoints.
type OTPHandler struct {
	otpUsecase usecase.OTPUsecase
	validator  *requestValidator
	respond    *responder
}

// NewOTPHandler creates an OTPHandler.
func NewOTPHandler(otpUsecase usecase.OTPUsecase, logger *zerolog.Logger, production bool) *OTPHandler {
	return &OTPHandler{
		otpUsecase: otpUsecase,
		validator:  newRequestValidator(),
		respond:    &responder{logger: logger, production: production},
	}
}

func (h *OTPHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	issue, err := h.otpUsecase.Request(r.Context(), req.Email, model.OTPPurpose(req.Purpose))
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.writeIssue(w, issue)
}

func (h *OTPHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	issue, err := h.otpUsecase.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.writeIssue(w, issue)
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req OTPVerifyRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	err := h.otpUsecase.Verify(r.Context(), req.Email, req.OTP, model.OTPPurpose(req.Purpose))
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, map[string]any{
		"message": "OTP verified successfully",
		"email":   req.Email,
	})
}

func (h *OTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req OTPResetPasswordRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	err := h.otpUsecase.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Password has been reset successfully",
	})
}

func (h *OTPHandler) writeIssue(w http.ResponseWriter, issue *usecase.OTPIssue) {
	message := "Verification code sent successfully"
	if issue.Purpose == model.OTPPurposePasswordReset {
		message = "Password reset code sent successfully"
	}

	payload := map[string]any{
		"message":   message,
		"purpose":   issue.Purpose,
		"expiresAt": issue.ExpiresAt,
	}
	if issue.TestCode != "" {
		payload["testOtp"] = issue.TestCode
	}
	if issue.PreviewURL != "" {
		payload["previewUrl"] = issue.PreviewURL
	}

	h.respond.JSON(w, http.StatusOK, payload)
}
