package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/happythoughts/apiserver/internal/store"
	"github.com/happythoughts/apiserver/types"
	"go.uber.org/zap"
)

const (
	// RecentLimit is both the default and the maximum listing size.
	RecentLimit   = 20
	maxIDAttempts = 5
)

// ThoughtRepository defines persistence operations for thoughts.
// IncrementHearts must apply the increment atomically in the backend.
type ThoughtRepository interface {
	List(ctx context.Context, limit int) ([]types.Thought, error)
	Get(ctx context.Context, id string) (types.Thought, error)
	Insert(ctx context.Context, thought types.Thought) (types.Thought, error)
	IncrementHearts(ctx context.Context, id string) (types.Thought, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// EventPublisher receives thought events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, event types.ThoughtEvent) error
}

// ThoughtService encapsulates thought use-cases.
type ThoughtService struct {
	repo   ThoughtRepository
	events EventPublisher
	logger *zap.Logger
	random io.Reader
	now    func() time.Time
}

func NewThoughtService(repo ThoughtRepository, opts ...Option) *ThoughtService {
	o := buildOptions(opts)
	return &ThoughtService{
		repo:   repo,
		events: o.events,
		logger: o.logger,
		random: o.random,
		now:    o.now,
	}
}

// Create validates and stores a new thought. A colliding id is re-rolled
// up to maxIDAttempts times.
func (s *ThoughtService) Create(ctx context.Context, message string) (types.Thought, error) {
	if err := validateInput(thoughtInput{Message: message}); err != nil {
		return types.Thought{}, err
	}

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := newHexID(s.random, idBytes)
		if err != nil {
			return types.Thought{}, fmt.Errorf("%w: generate thought id: %w", ErrInternal, err)
		}

		thought, err := s.repo.Insert(ctx, types.Thought{
			ID:        id,
			Message:   message,
			Hearts:    0,
			CreatedAt: s.now().UTC(),
		})
		if err == nil {
			s.logger.Info("thought created", zap.String("thought_id", thought.ID))
			s.publish(ctx, types.ThoughtCreated, thought)
			return thought, nil
		}
		if !errors.Is(err, store.ErrDuplicateKey) {
			return types.Thought{}, fmt.Errorf("create thought: %w", err)
		}
		s.logger.Warn("thought id collision", zap.Int("attempt", attempt))
	}

	return types.Thought{}, fmt.Errorf("%w: no free thought id after %d attempts", ErrInternal, maxIDAttempts)
}

// List returns the most recent thoughts, newest first.
func (s *ThoughtService) List(ctx context.Context, limit int) ([]types.Thought, error) {
	if limit <= 0 || limit > RecentLimit {
		limit = RecentLimit
	}
	thoughts, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list thoughts: %w", err)
	}
	return thoughts, nil
}

func (s *ThoughtService) Get(ctx context.Context, id string) (types.Thought, error) {
	thought, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Thought{}, fmt.Errorf("get thought %s: %w", id, err)
	}
	return thought, nil
}

// Delete removes a thought. An unknown id is not an error; it reports
// zero deletions and the caller decides how to surface it.
func (s *ThoughtService) Delete(ctx context.Context, id string) (types.DeleteResult, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return types.DeleteResult{}, fmt.Errorf("delete thought %s: %w", id, err)
	}
	if deleted > 0 {
		s.logger.Info("thought deleted", zap.String("thought_id", id))
		s.publish(ctx, types.ThoughtDeleted, types.Thought{ID: id})
	}
	return types.DeleteResult{Acknowledged: true, DeletedCount: deleted}, nil
}

// Like adds one heart and returns the updated thought.
func (s *ThoughtService) Like(ctx context.Context, id string) (types.Thought, error) {
	thought, err := s.repo.IncrementHearts(ctx, id)
	if err != nil {
		return types.Thought{}, fmt.Errorf("like thought %s: %w", id, err)
	}
	s.publish(ctx, types.ThoughtLiked, thought)
	return thought, nil
}

// publish is best effort; a broker outage must not fail the write that
// already happened.
func (s *ThoughtService) publish(ctx context.Context, eventType types.ThoughtEventType, thought types.Thought) {
	if s.events == nil {
		return
	}
	event := types.ThoughtEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		ThoughtID:  thought.ID,
		Hearts:     thought.Hearts,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publish thought event failed",
			zap.String("type", string(eventType)),
			zap.String("thought_id", thought.ID),
			zap.Error(err),
		)
	}
}
