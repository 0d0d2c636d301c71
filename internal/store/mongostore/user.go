package mongostore

import (
	"context"

	"github.com/happythoughts/apiserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository handles persistence for users in MongoDB. Uniqueness of
// name and accessToken comes from the indexes created by EnsureIndexes.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (types.User, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *UserRepository) GetByAccessToken(ctx context.Context, token string) (types.User, error) {
	return r.findOne(ctx, bson.M{"accessToken": token})
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return types.User{}, mapError(err)
	}
	return user, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (types.User, error) {
	var user types.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return types.User{}, mapError(err)
	}
	return user, nil
}
