package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kittipat-dev/unilib-api/internal/usecase"
	"github.com/kittipat-dev/unilib-api/shared/auth"
	"github.com/kittipat-dev/unilib-api/shared/mailer"
)

// responder writes the uniform JSON envelope. Every response carries
// success; error responses carry message, plus the underlying error detail
// outside production.
type responder struct {
	logger     *zerolog.Logger
	production bool
}

func (rp *responder) JSON(w http.ResponseWriter, status int, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	if _, ok := payload["success"]; !ok {
		payload["success"] = true
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		rp.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (rp *responder) Error(w http.ResponseWriter, err error) {
	status, message := rp.classify(err)

	if status >= http.StatusInternalServerError {
		rp.logger.Error().Err(err).Msg("request failed")
	}

	payload := map[string]any{
		"success": false,
		"message": message,
	}
	if !rp.production {
		payload["stack"] = err.Error()
	}

	rp.JSON(w, status, payload)
}

func (rp *responder) ValidationError(w http.ResponseWriter, message string) {
	payload := map[string]any{
		"success": false,
		"message": message,
	}

	rp.JSON(w, http.StatusBadRequest, payload)
}

// classify maps usecase failures onto the HTTP error taxonomy. Security
// sensitive failures keep their messages generic; a role-scope miss is
// indistinguishable from an unknown token.
func (rp *responder) classify(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Incorrect email or password"
	case errors.Is(err, usecase.ErrUserNotFound):
		return http.StatusNotFound, "No user found with that email address"
	case errors.Is(err, usecase.ErrUserAlreadyExists):
		return http.StatusBadRequest, "A user with this email already exists"
	case errors.Is(err, usecase.ErrRoleNotAllowed):
		return http.StatusBadRequest, "Only students can register. Teachers and admins must be created by an admin."
	case errors.Is(err, usecase.ErrPasswordTooShort):
		return http.StatusBadRequest, "Password must be at least 8 characters long"
	case errors.Is(err, usecase.ErrTokenInvalidOrExpired):
		return http.StatusBadRequest, "Token is invalid or has expired"
	case errors.Is(err, usecase.ErrOTPNotFound):
		return http.StatusNotFound, "OTP not found or expired"
	case errors.Is(err, usecase.ErrOTPExpired):
		return http.StatusBadRequest, "OTP has expired"
	case errors.Is(err, usecase.ErrOTPMismatch):
		return http.StatusBadRequest, "Invalid OTP"
	case errors.Is(err, usecase.ErrOTPPurposeMismatch):
		return http.StatusBadRequest, "Invalid OTP purpose"
	case errors.Is(err, usecase.ErrOTPNotUsable):
		return http.StatusBadRequest, "This OTP cannot be used for password reset"
	case errors.Is(err, usecase.ErrInvalidPurpose):
		return http.StatusBadRequest, `Invalid purpose. Must be either "verification" or "password_reset"`
	case errors.Is(err, usecase.ErrDeliveryFailed),
		errors.Is(err, mailer.ErrDeliveryFailed),
		errors.Is(err, mailer.ErrAuthFailed):
		return http.StatusInternalServerError, "Failed to send notification. Please try again later."
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token. Please log in again."
	case errors.Is(err, auth.ErrMissingSecret):
		return http.StatusInternalServerError, "server is misconfigured"
	default:
		return http.StatusInternalServerError, "something went wrong"
	}
}
