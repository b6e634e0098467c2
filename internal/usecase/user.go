package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kittipat-dev/unilib-api/internal/model"
	"github.com/kittipat-dev/unilib-api/internal/repository"
)

// UserUsecase defines the admin-facing account management operations.
type UserUsecase interface {
	ListUsers(ctx context.Context, role *model.Role, limit, offset int64) ([]*model.User, error)
	UpdateUser(ctx context.Context, id string, params repository.UpdateUserParams) (*model.User, error)
	DeleteUser(ctx context.Context, id string) (*model.User, error)
}

type userUsecase struct {
	userRepo repository.UserRepository
}

// NewUserUsecase creates a new UserUsecase.
func NewUserUsecase(userRepo repository.UserRepository) UserUsecase {
	return &userUsecase{userRepo: userRepo}
}

func (u *userUsecase) ListUsers(
	ctx context.Context,
	role *model.Role,
	limit, offset int64,
) ([]*model.User, error) {
	return u.userRepo.ListUsers(ctx, repository.FilterUsersParams{
		Role:   role,
		Limit:  limit,
		Offset: offset,
	})
}

func (u *userUsecase) UpdateUser(
	ctx context.Context,
	id string,
	params repository.UpdateUserParams,
) (*model.User, error) {
	if params.Role != nil && !params.Role.Valid() {
		return nil, ErrRoleNotAllowed
	}
	if params.Email != nil {
		normalized := NormalizeEmail(*params.Email)
		params.Email = &normalized
	}

	user, err := u.userRepo.UpdateUser(ctx, id, params)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}

func (u *userUsecase) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	user, err := u.userRepo.DeleteUser(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}
