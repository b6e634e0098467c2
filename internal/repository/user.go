package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kittipat-dev/unilib-api/internal/model"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUserByEmailAndRoles looks up a user matching both email and one of
	// the given roles. Used by the role-scoped recovery flows.
	GetUserByEmailAndRoles(ctx context.Context, email string, roles []model.Role) (*model.User, error)

	// GetUserByResetToken resolves an unexpired recovery token hash within a
	// role scope. A hash match outside the scope behaves like no match.
	GetUserByResetToken(ctx context.Context, tokenHash string, roles []model.Role, now time.Time) (*model.User, error)

	// SetResetToken stores a new recovery token hash and expiry, overwriting
	// any previous pair.
	SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error

	// ConsumePasswordReset atomically sets the new password hash and clears
	// both reset fields for the user matching the token hash, scope, and
	// expiry. The filter-and-update is one document operation, so a second
	// consume of the same token finds nothing.
	ConsumePasswordReset(
		ctx context.Context,
		tokenHash string,
		roles []model.Role,
		now time.Time,
		newPasswordHash string,
	) (*model.User, error)

	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	SetEmailVerified(ctx context.Context, email string) error
	RecordLogin(ctx context.Context, id string) error
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	DeleteUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error)
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	Name        *string
	Email       *string
	PhoneNumber *string
	BranchID    *string
	Year        *string
	Role        *model.Role
}

// FilterUsersParams defines the parameters for filtering and paginating users.
type FilterUsersParams struct {
	Role   *model.Role
	Limit  int64
	Offset int64
}

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

// NewUserMongoRepository creates the MongoDB user repository and ensures the
// unique email index exists.
func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "reset_token_hash", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) GetUserByEmailAndRoles(
	ctx context.Context,
	email string,
	roles []model.Role,
) (*model.User, error) {
	return r.findOne(ctx, bson.M{
		"email": email,
		"role":  bson.M{"$in": roles},
	})
}

func (r *userMongoRepository) GetUserByResetToken(
	ctx context.Context,
	tokenHash string,
	roles []model.Role,
	now time.Time,
) (*model.User, error) {
	return r.findOne(ctx, bson.M{
		"reset_token_hash":       tokenHash,
		"reset_token_expires_at": bson.M{"$gt": now},
		"role":                   bson.M{"$in": roles},
	})
}

func (r *userMongoRepository) SetResetToken(
	ctx context.Context,
	id string,
	tokenHash string,
	expiresAt time.Time,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"reset_token_hash":       tokenHash,
			"reset_token_expires_at": expiresAt,
			"updated_at":             time.Now(),
		}},
	)
	return err
}

func (r *userMongoRepository) ConsumePasswordReset(
	ctx context.Context,
	tokenHash string,
	roles []model.Role,
	now time.Time,
	newPasswordHash string,
) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{
			"reset_token_hash":       tokenHash,
			"reset_token_expires_at": bson.M{"$gt": now},
			"role":                   bson.M{"$in": roles},
		},
		bson.M{
			"$set": bson.M{
				"password_hash": newPasswordHash,
				"updated_at":    time.Now(),
			},
			"$unset": bson.M{
				"reset_token_hash":       "",
				"reset_token_expires_at": "",
			},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		}},
	)
	return err
}

func (r *userMongoRepository) SetEmailVerified(ctx context.Context, email string) error {
	result, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{
			"email_verified": true,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *userMongoRepository) RecordLogin(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$inc": bson.M{"login_count": 1},
			"$set": bson.M{"last_login_at": time.Now()},
		},
	)
	return err
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	updateMap := bson.M{}
	if params.Name != nil {
		updateMap["name"] = *params.Name
	}
	if params.Email != nil {
		updateMap["email"] = *params.Email
	}
	if params.PhoneNumber != nil {
		updateMap["phone_number"] = *params.PhoneNumber
	}
	if params.BranchID != nil {
		updateMap["branch_id"] = *params.BranchID
	}
	if params.Year != nil {
		updateMap["year"] = *params.Year
	}
	if params.Role != nil {
		updateMap["role"] = *params.Role
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no user fields to update")
	}

	updateMap["updated_at"] = time.Now()

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(userCollection).FindOneAndDelete(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) ListUsers(
	ctx context.Context,
	params FilterUsersParams,
) ([]*model.User, error) {
	findOptions := options.Find()

	limit := params.Limit
	if limit == 0 {
		limit = 50
	}
	findOptions.SetLimit(limit)

	if params.Offset > 0 {
		findOptions.SetSkip(params.Offset)
	}

	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}})

	filter := bson.M{}
	if params.Role != nil {
		filter["role"] = *params.Role
	}

	cursor, err := r.db.Collection(userCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*model.User
	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, filter)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}
