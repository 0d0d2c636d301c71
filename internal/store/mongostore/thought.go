package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/happythoughts/apiserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ThoughtRepository handles persistence for thoughts in MongoDB.
type ThoughtRepository struct {
	coll *mongo.Collection
}

func NewThoughtRepository(db *mongo.Database) *ThoughtRepository {
	return &ThoughtRepository{coll: db.Collection(thoughtsCollection)}
}

func (r *ThoughtRepository) List(ctx context.Context, limit int) ([]types.Thought, error) {
	if limit < 1 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list thoughts: %w", err)
	}

	thoughts := make([]types.Thought, 0, limit)
	if err := cursor.All(ctx, &thoughts); err != nil {
		return nil, fmt.Errorf("decode thoughts: %w", err)
	}
	return thoughts, nil
}

func (r *ThoughtRepository) Get(ctx context.Context, id string) (types.Thought, error) {
	var thought types.Thought
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&thought); err != nil {
		return types.Thought{}, mapError(err)
	}
	return thought, nil
}

// Insert stores thought. BSON dates hold milliseconds, so CreatedAt is
// truncated first to keep the returned value equal to later reads.
func (r *ThoughtRepository) Insert(ctx context.Context, thought types.Thought) (types.Thought, error) {
	thought.CreatedAt = thought.CreatedAt.Truncate(time.Millisecond)
	if _, err := r.coll.InsertOne(ctx, thought); err != nil {
		return types.Thought{}, mapError(err)
	}
	return thought, nil
}

// IncrementHearts applies $inc and returns the document after the update.
func (r *ThoughtRepository) IncrementHearts(ctx context.Context, id string) (types.Thought, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var thought types.Thought
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"hearts": 1}},
		opts,
	).Decode(&thought)
	if err != nil {
		return types.Thought{}, mapError(err)
	}
	return thought, nil
}

func (r *ThoughtRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
