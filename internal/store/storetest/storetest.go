// Package storetest holds behaviour checks shared by every repository
// backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/happythoughts/apiserver/internal/store"
	"github.com/happythoughts/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ThoughtRepository interface {
	List(ctx context.Context, limit int) ([]types.Thought, error)
	Get(ctx context.Context, id string) (types.Thought, error)
	Insert(ctx context.Context, thought types.Thought) (types.Thought, error)
	IncrementHearts(ctx context.Context, id string) (types.Thought, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type UserRepository interface {
	GetByName(ctx context.Context, name string) (types.User, error)
	GetByAccessToken(ctx context.Context, token string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

var idCounter struct {
	sync.Mutex
	n int
}

// uniqueID returns a 24 character id that is unique for the test binary.
func uniqueID(prefix string) string {
	idCounter.Lock()
	defer idCounter.Unlock()
	idCounter.n++
	return fmt.Sprintf("%s%0*d", prefix, 24-len(prefix), idCounter.n)
}

// RunThoughtRepository exercises a fresh thought repository. newRepo must
// return an empty repository on every call.
func RunThoughtRepository(t *testing.T, newRepo func(t *testing.T) ThoughtRepository) {
	t.Run("insert and get", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		id := uniqueID("a")
		createdAt := time.Now().UTC().Truncate(time.Millisecond)

		inserted, err := repo.Insert(ctx, types.Thought{ID: id, Message: "hello", CreatedAt: createdAt})
		require.NoError(t, err)
		assert.Equal(t, id, inserted.ID)

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Message)
		assert.Zero(t, got.Hearts)
		assert.True(t, got.CreatedAt.Equal(createdAt), "created at %v, want %v", got.CreatedAt, createdAt)
	})

	t.Run("created at round trips", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		id := uniqueID("g")
		createdAt := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)

		inserted, err := repo.Insert(ctx, types.Thought{ID: id, Message: "precise time", CreatedAt: createdAt})
		require.NoError(t, err)

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, inserted.CreatedAt.Equal(got.CreatedAt), "insert returned %v, stored %v", inserted.CreatedAt, got.CreatedAt)

		thoughts, err := repo.List(ctx, 20)
		require.NoError(t, err)
		require.NotEmpty(t, thoughts)
		for _, listed := range thoughts {
			if listed.ID == id {
				assert.True(t, inserted.CreatedAt.Equal(listed.CreatedAt))
			}
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		id := uniqueID("b")
		now := time.Now().UTC()

		_, err := repo.Insert(ctx, types.Thought{ID: id, Message: "first one", CreatedAt: now})
		require.NoError(t, err)
		_, err = repo.Insert(ctx, types.Thought{ID: id, Message: "second one", CreatedAt: now})
		assert.ErrorIs(t, err, store.ErrDuplicateKey)
	})

	t.Run("list newest first", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		base := time.Now().UTC().Truncate(time.Millisecond)

		for i := 0; i < 25; i++ {
			_, err := repo.Insert(ctx, types.Thought{
				ID:        uniqueID("c"),
				Message:   fmt.Sprintf("thought %d", i),
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			})
			require.NoError(t, err)
		}

		thoughts, err := repo.List(ctx, 20)
		require.NoError(t, err)
		require.Len(t, thoughts, 20)
		assert.Equal(t, "thought 24", thoughts[0].Message)
		for i := 1; i < len(thoughts); i++ {
			assert.False(t, thoughts[i].CreatedAt.After(thoughts[i-1].CreatedAt), "list out of order at %d", i)
		}
	})

	t.Run("concurrent likes", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		id := uniqueID("d")
		_, err := repo.Insert(ctx, types.Thought{ID: id, Message: "like me", CreatedAt: time.Now().UTC()})
		require.NoError(t, err)

		const likes = 20
		var wg sync.WaitGroup
		wg.Add(likes)
		for i := 0; i < likes; i++ {
			go func() {
				defer wg.Done()
				_, err := repo.IncrementHearts(ctx, id)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, likes, got.Hearts)
	})

	t.Run("missing id", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		id := uniqueID("e")

		_, err := repo.Get(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = repo.IncrementHearts(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound)

		deleted, err := repo.Delete(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		id := uniqueID("f")
		_, err := repo.Insert(ctx, types.Thought{ID: id, Message: "bye bye", CreatedAt: time.Now().UTC()})
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = repo.Get(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

// RunUserRepository exercises a fresh user repository.
func RunUserRepository(t *testing.T, newRepo func(t *testing.T) UserRepository) {
	t.Run("create and lookup", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		user := types.User{
			ID:           uniqueID("u"),
			Name:         "alice",
			PasswordHash: "hash",
			AccessToken:  uniqueID("token"),
			CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		}

		_, err := repo.Create(ctx, user)
		require.NoError(t, err)

		byName, err := repo.GetByName(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)
		assert.Equal(t, "hash", byName.PasswordHash)

		byToken, err := repo.GetByAccessToken(ctx, user.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", byToken.Name)

		_, err = repo.GetByName(ctx, "ALICE")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = repo.GetByAccessToken(ctx, user.AccessToken+"x")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate name", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		now := time.Now().UTC()

		_, err := repo.Create(ctx, types.User{ID: uniqueID("u"), Name: "bob", PasswordHash: "h", AccessToken: uniqueID("t"), CreatedAt: now})
		require.NoError(t, err)
		_, err = repo.Create(ctx, types.User{ID: uniqueID("u"), Name: "bob", PasswordHash: "h", AccessToken: uniqueID("t"), CreatedAt: now})
		assert.ErrorIs(t, err, store.ErrDuplicateKey)
	})
}
