package types

import "time"

// Thought represents a short text post on the board.
// The message is immutable once stored; only the like counter changes.
type Thought struct {
	// ID is the 24 character hex identifier generated at creation.
	ID string `json:"id" db:"id" bson:"_id"`

	// Message is the text of the thought.
	Message string `json:"message" db:"message" bson:"message"`

	// Hearts counts the likes the thought has received. It is only ever
	// changed by an atomic increment in the backing store.
	Hearts int `json:"hearts" db:"hearts" bson:"hearts"`

	// CreatedAt is the timestamp at which the thought was created and
	// the key used to order listings.
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
}

// DeleteResult reports the outcome of a delete request.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
