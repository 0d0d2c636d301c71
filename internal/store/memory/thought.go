// Package memory implements the repositories on top of process memory.
// Each repository owns its collection and serializes every mutation
// behind a single lock.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/happythoughts/apiserver/internal/store"
	"github.com/happythoughts/apiserver/types"
)

type thoughtRecord struct {
	thought types.Thought
	seq     uint64
}

// ThoughtRepository keeps thoughts in a map guarded by a mutex.
type ThoughtRepository struct {
	mu      sync.RWMutex
	records map[string]*thoughtRecord
	nextSeq uint64
}

func NewThoughtRepository() *ThoughtRepository {
	return &ThoughtRepository{records: make(map[string]*thoughtRecord)}
}

func (r *ThoughtRepository) List(ctx context.Context, limit int) ([]types.Thought, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 20
	}

	r.mu.RLock()
	records := make([]*thoughtRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.thought.CreatedAt.Equal(b.thought.CreatedAt) {
			return a.thought.CreatedAt.After(b.thought.CreatedAt)
		}
		return a.seq > b.seq
	})

	if len(records) > limit {
		records = records[:limit]
	}
	thoughts := make([]types.Thought, 0, len(records))
	for _, record := range records {
		thoughts = append(thoughts, record.thought)
	}
	return thoughts, nil
}

func (r *ThoughtRepository) Get(ctx context.Context, id string) (types.Thought, error) {
	if err := ctx.Err(); err != nil {
		return types.Thought{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return types.Thought{}, store.ErrNotFound
	}
	return record.thought, nil
}

func (r *ThoughtRepository) Insert(ctx context.Context, thought types.Thought) (types.Thought, error) {
	if err := ctx.Err(); err != nil {
		return types.Thought{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[thought.ID]; exists {
		return types.Thought{}, store.ErrDuplicateKey
	}
	r.nextSeq++
	r.records[thought.ID] = &thoughtRecord{thought: thought, seq: r.nextSeq}
	return thought, nil
}

func (r *ThoughtRepository) IncrementHearts(ctx context.Context, id string) (types.Thought, error) {
	if err := ctx.Err(); err != nil {
		return types.Thought{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return types.Thought{}, store.ErrNotFound
	}
	record.thought.Hearts++
	return record.thought, nil
}

func (r *ThoughtRepository) Delete(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return 0, nil
	}
	delete(r.records, id)
	return 1, nil
}
