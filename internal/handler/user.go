package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kittipat-dev/unilib-api/internal/middleware"
	"github.com/kittipat-dev/unilib-api/internal/model"
	"github.com/kittipat-dev/unilib-api/internal/repository"
	"github.com/kittipat-dev/unilib-api/internal/usecase"
)

// CreateUserRequest is the admin payload for creating teacher/admin accounts.
type CreateUserRequest struct {
	Name        string `json:"name"         validate:"required"`
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=8"`
	Role        string `json:"role"         validate:"required,oneof=teacher admin"`
	PhoneNumber string `json:"phone_number" validate:"omitempty"`
	BranchID    string `json:"branch_id"    validate:"omitempty"`
	Year        string `json:"year"         validate:"omitempty,numeric"`
}

// UpdateUserRequest is the admin payload for partial user updates.
type UpdateUserRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
	BranchID    *string `json:"branch_id"`
	Year        *string `json:"year"`
	Role        *string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

// UserHandler serves the admin account management endpoints.
type UserHandler struct {
	authUsecase usecase.AuthUsecase
	userUsecase usecase.UserUsecase
	validator   *requestValidator
	respond     *responder
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(
	authUsecase usecase.AuthUsecase,
	userUsecase usecase.UserUsecase,
	logger *zerolog.Logger,
	production bool,
) *UserHandler {
	return &UserHandler{
		authUsecase: authUsecase,
		userUsecase: userUsecase,
		validator:   newRequestValidator(),
		respond:     &responder{logger: logger, production: production},
	}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	user, err := h.authUsecase.CreateUser(r.Context(), usecase.CreateUserParams{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        model.Role(req.Role),
		PhoneNumber: req.PhoneNumber,
		BranchID:    req.BranchID,
		Year:        req.Year,
	})
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{"user": user},
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var role *model.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		candidate := model.Role(raw)
		if !candidate.Valid() {
			h.respond.ValidationError(w, "unknown role filter")
			return
		}
		role = &candidate
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)

	users, err := h.userUsecase.ListUsers(r.Context(), role, limit, offset)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, map[string]any{
		"results": len(users),
		"data":    map[string]any{"users": users},
	})
}

// GetUser serves a single user to an admin, or to the user themselves.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respond.Error(w, usecase.ErrUserNotFound)
		return
	}

	if caller.Role != model.RoleAdmin && caller.ID.Hex() != id {
		h.respond.JSON(w, http.StatusForbidden, map[string]any{
			"success": false,
			"message": "You do not have permission to perform this action",
		})
		return
	}

	user, err := h.authUsecase.GetUser(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"user": user},
	})
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateUserRequest
	if msg := h.validator.DecodeAndValidate(r, &req); msg != "" {
		h.respond.ValidationError(w, msg)
		return
	}

	params := repository.UpdateUserParams{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		BranchID:    req.BranchID,
		Year:        req.Year,
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		params.Role = &role
	}

	user, err := h.userUsecase.UpdateUser(r.Context(), id, params)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"user": user},
	})
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.userUsecase.DeleteUser(r.Context(), id); err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, map[string]any{
		"message": "User deleted successfully",
	})
}
