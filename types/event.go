package types

import "time"

// ThoughtEventType names a change to a thought.
type ThoughtEventType string

const (
	ThoughtCreated ThoughtEventType = "thought.created"
	ThoughtLiked   ThoughtEventType = "thought.liked"
	ThoughtDeleted ThoughtEventType = "thought.deleted"
)

// ThoughtEvent is published to the message queue after a successful write.
type ThoughtEvent struct {
	ID         string           `json:"id"`
	Type       ThoughtEventType `json:"type"`
	ThoughtID  string           `json:"thoughtId"`
	Hearts     int              `json:"hearts"`
	OccurredAt time.Time        `json:"occurredAt"`
}
