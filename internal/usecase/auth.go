package usecase

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kittipat-dev/unilib-api/internal/model"
	"github.com/kittipat-dev/unilib-api/internal/repository"
	"github.com/kittipat-dev/unilib-api/shared/auth"
	"github.com/kittipat-dev/unilib-api/shared/security"
)

// MinPasswordLength is the policy minimum for any password write.
const MinPasswordLength = 8

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotAllowed     = errors.New("role not allowed for this operation")
	ErrPasswordTooShort   = errors.New("password is too short")
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	// Register creates a student account. A caller-supplied role other than
	// student is rejected; teachers and admins are created by an admin only.
	Register(ctx context.Context, params RegisterParams) (*model.User, string, error)

	// Login verifies credentials, records login bookkeeping, and returns
	// the user with a fresh session token.
	Login(ctx context.Context, email, password string) (*model.User, string, error)

	// ChangePassword updates the password of an authenticated user after
	// re-verifying the current one.
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (string, error)

	// CreateUser creates a teacher or admin account on behalf of an admin.
	CreateUser(ctx context.Context, params CreateUserParams) (*model.User, error)

	// GetUser resolves a user by ID.
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// RegisterParams defines the parameters for self-registration.
type RegisterParams struct {
	Name        string
	Email       string
	Password    string
	Role        model.Role
	PhoneNumber string
	BranchID    string
	Year        string
	StudentCode string
}

// CreateUserParams defines the parameters for admin-initiated account creation.
type CreateUserParams struct {
	Name        string
	Email       string
	Password    string
	Role        model.Role
	PhoneNumber string
	BranchID    string
	Year        string
}

type authUsecase struct {
	userRepo repository.UserRepository
	issuer   *auth.TokenIssuer
}

// NewAuthUsecase creates a new AuthUsecase.
func NewAuthUsecase(userRepo repository.UserRepository, issuer *auth.TokenIssuer) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, string, error) {
	if params.Role != "" && params.Role != model.RoleStudent {
		return nil, "", ErrRoleNotAllowed
	}
	if len(params.Password) < MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, "", err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:         params.Name,
		Email:        NormalizeEmail(params.Email),
		PasswordHash: passwordHash,
		Role:         model.RoleStudent,
		PhoneNumber:  params.PhoneNumber,
		BranchID:     params.BranchID,
		Year:         params.Year,
		StudentCode:  params.StudentCode,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, "", ErrUserAlreadyExists
		}

		return nil, "", err
	}

	token, err := u.issuer.Issue(user.ID.Hex())
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (u *authUsecase) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", ErrInvalidCredentials
		}

		return nil, "", err
	}

	if ok, err := security.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, "", err
	} else if !ok {
		return nil, "", ErrInvalidCredentials
	}

	if err := u.userRepo.RecordLogin(ctx, user.ID.Hex()); err != nil {
		return nil, "", err
	}

	token, err := u.issuer.Issue(user.ID.Hex())
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (u *authUsecase) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) (string, error) {
	if len(newPassword) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrUserNotFound
		}

		return "", err
	}

	if ok, err := security.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		return "", err
	} else if !ok {
		return "", ErrInvalidCredentials
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return "", err
	}

	if err := u.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return "", err
	}

	return u.issuer.Issue(userID)
}

func (u *authUsecase) CreateUser(ctx context.Context, params CreateUserParams) (*model.User, error) {
	if params.Role != model.RoleTeacher && params.Role != model.RoleAdmin {
		return nil, ErrRoleNotAllowed
	}
	if len(params.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:         params.Name,
		Email:        NormalizeEmail(params.Email),
		PasswordHash: passwordHash,
		Role:         params.Role,
		PhoneNumber:  params.PhoneNumber,
		BranchID:     params.BranchID,
		Year:         params.Year,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserAlreadyExists
		}

		return nil, err
	}

	return user, nil
}

func (u *authUsecase) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}

// NormalizeEmail lowercases and trims an address; emails are compared
// case-insensitively everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
