package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/happythoughts/apiserver/types"
)

// sequenceReader hands out one chunk per Read call and repeats the last
// chunk once the sequence is exhausted.
type sequenceReader struct {
	mu     sync.Mutex
	chunks [][]byte
	next   int
}

func (r *sequenceReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chunk := r.chunks[r.next]
	if r.next < len(r.chunks)-1 {
		r.next++
	}
	return copy(p, chunk), nil
}

func repeatByte(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

var _ io.Reader = errReader{}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.ThoughtEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event types.ThoughtEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) eventTypes() []types.ThoughtEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.ThoughtEventType, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Type)
	}
	return out
}

// countingThoughtRepo wraps a repository and counts Insert calls.
type countingThoughtRepo struct {
	ThoughtRepository
	mu      sync.Mutex
	inserts int
}

func (r *countingThoughtRepo) Insert(ctx context.Context, thought types.Thought) (types.Thought, error) {
	r.mu.Lock()
	r.inserts++
	r.mu.Unlock()
	return r.ThoughtRepository.Insert(ctx, thought)
}

// failingThoughtRepo fails every call with err.
type failingThoughtRepo struct {
	err error
}

func (r failingThoughtRepo) List(context.Context, int) ([]types.Thought, error) { return nil, r.err }
func (r failingThoughtRepo) Get(context.Context, string) (types.Thought, error) {
	return types.Thought{}, r.err
}
func (r failingThoughtRepo) Insert(context.Context, types.Thought) (types.Thought, error) {
	return types.Thought{}, r.err
}
func (r failingThoughtRepo) IncrementHearts(context.Context, string) (types.Thought, error) {
	return types.Thought{}, r.err
}
func (r failingThoughtRepo) Delete(context.Context, string) (int64, error) { return 0, r.err }
