package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kittipat-dev/unilib-api/internal/model"
	"github.com/kittipat-dev/unilib-api/internal/repository"
	"github.com/kittipat-dev/unilib-api/shared/mailer"
)

// fakeUserRepo is an in-memory repository.UserRepository. It mirrors the
// Mongo implementation's error surface: mongo.ErrNoDocuments on miss and a
// duplicate-key write exception on email collisions, so the usecase error
// mapping under test is the real one.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func duplicateKeyErr() error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
}

func roleIn(role model.Role, roles []model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Email == user.Email {
			return nil, duplicateKeyErr()
		}
	}

	user.ID = bson.NewObjectID()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	f.users[user.ID.Hex()] = copyUser(user)
	return copyUser(user), nil
}

func (f *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return copyUser(user), nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) GetUserByEmailAndRoles(
	_ context.Context,
	email string,
	roles []model.Role,
) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.Email == email && roleIn(user.Role, roles) {
			return copyUser(user), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) GetUserByResetToken(
	_ context.Context,
	tokenHash string,
	roles []model.Role,
	now time.Time,
) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if user := f.findByResetToken(tokenHash, roles, now); user != nil {
		return copyUser(user), nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) SetResetToken(
	_ context.Context,
	id string,
	tokenHash string,
	expiresAt time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	user.ResetTokenHash = &tokenHash
	expiry := expiresAt
	user.ResetTokenExpiresAt = &expiry
	return nil
}

func (f *fakeUserRepo) ConsumePasswordReset(
	_ context.Context,
	tokenHash string,
	roles []model.Role,
	now time.Time,
	newPasswordHash string,
) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := f.findByResetToken(tokenHash, roles, now)
	if user == nil {
		return nil, mongo.ErrNoDocuments
	}

	user.PasswordHash = newPasswordHash
	user.ResetTokenHash = nil
	user.ResetTokenExpiresAt = nil
	return copyUser(user), nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) SetEmailVerified(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.Email == email {
			user.EmailVerified = true
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (f *fakeUserRepo) RecordLogin(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	user.LoginCount++
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

func (f *fakeUserRepo) UpdateUser(
	_ context.Context,
	id string,
	params repository.UpdateUserParams,
) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.Email != nil {
		for otherID, other := range f.users {
			if otherID != id && other.Email == *params.Email {
				return nil, duplicateKeyErr()
			}
		}
		user.Email = *params.Email
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.PhoneNumber != nil {
		user.PhoneNumber = *params.PhoneNumber
	}
	if params.BranchID != nil {
		user.BranchID = *params.BranchID
	}
	if params.Year != nil {
		user.Year = *params.Year
	}
	if params.Role != nil {
		user.Role = *params.Role
	}

	return copyUser(user), nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	delete(f.users, id)
	return user, nil
}

func (f *fakeUserRepo) ListUsers(
	_ context.Context,
	params repository.FilterUsersParams,
) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var users []*model.User
	for _, user := range f.users {
		if params.Role != nil && user.Role != *params.Role {
			continue
		}
		users = append(users, copyUser(user))
	}
	return users, nil
}

// findByResetToken applies the same filter as the Mongo FindOneAndUpdate:
// hash match, unexpired, and role in scope. Callers hold the lock.
func (f *fakeUserRepo) findByResetToken(tokenHash string, roles []model.Role, now time.Time) *model.User {
	for _, user := range f.users {
		if user.ResetTokenHash == nil || user.ResetTokenExpiresAt == nil {
			continue
		}
		if *user.ResetTokenHash == tokenHash && user.ResetTokenExpiresAt.After(now) && roleIn(user.Role, roles) {
			return user
		}
	}
	return nil
}

// failingNotifier simulates an unreachable delivery channel.
type failingNotifier struct{}

func (failingNotifier) Send(context.Context, mailer.Email) (*mailer.Receipt, error) {
	return nil, errors.New("smtp unreachable")
}
