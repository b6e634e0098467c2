package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kittipat-dev/unilib-api/internal/middleware"
	"github.com/kittipat-dev/unilib-api/internal/model"
	"github.com/kittipat-dev/unilib-api/internal/usecase"
)

// RegisterRequest is the self-registration payload. Role is accepted only so
// a non-student value can be rejected explicitly.
type RegisterRequest struct {
	Name        string `json:"name"         validate:"required"`
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=8"`
	Role        string `json:"role"         validate:"omitempty"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,e164|numeric"`
	BranchID    string `json:"branch_id"    validate:"omitempty"`
	Year        string `json:"year"         validate:"omitempty,numeric"`
	StudentCode string `json:"student_code" validate:"omitempty"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordRequest is the authenticated password change payload.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8"`
}

// AuthHandler serves registration, login, and session endpoints.
type AuthHandler struct {
	authUsecase   usecase.AuthUsecase
	validator     *requestValidator
	respond       *responder
	cookieMaxAge  time.Duration
	secureCookies bool
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	authUsecase usecase.AuthUsecase,
	logger *zerolog.Logger,
	sessionTTL time.Duration,
	production bool,
) *AuthHandler {
	return &AuthHandler{
		authUsecase:   authUsecase,
		validator:     newRequestValidator(),
		respond:       &responder{logger: logger, production: production},
		cookieMaxAge:  sessionTTL,
		secureCookies: production,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	user, token, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        model.Role(req.Role),
		PhoneNumber: req.PhoneNumber,
		BranchID:    req.BranchID,
		Year:        req.Year,
		StudentCode: req.StudentCode,
	})
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.sendToken(w, http.StatusCreated, user, token)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	user, token, err := h.authUsecase.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.sendToken(w, http.StatusOK, user, token)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "loggedout",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		Path:     "/",
	})

	h.respond.JSON(w, http.StatusOK, map[string]any{
		"message": "User logged out successfully",
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respond.Error(w, usecase.ErrUserNotFound)
		return
	}

	h.respond.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"user": user},
	})
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respond.Error(w, usecase.ErrUserNotFound)
		return
	}

	var req UpdatePasswordRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	token, err := h.authUsecase.ChangePassword(r.Context(), user.ID.Hex(), req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.sendToken(w, http.StatusOK, user, token)
}

// sendToken sets the session cookie and writes the user plus token in the
// response body. The password hash never serializes.
func (h *AuthHandler) sendToken(w http.ResponseWriter, status int, user *model.User, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(h.cookieMaxAge),
		HttpOnly: true,
		Secure:   h.secureCookies,
		Path:     "/",
	})

	h.respond.JSON(w, status, map[string]any{
		"token": token,
		"data":  map[string]any{"user": user},
	})
}
