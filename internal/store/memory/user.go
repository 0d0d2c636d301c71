package memory

import (
	"context"
	"sync"

	"github.com/happythoughts/apiserver/internal/store"
	"github.com/happythoughts/apiserver/types"
)

// UserRepository indexes users by name and by access token. Both indexes
// act as unique keys.
type UserRepository struct {
	mu      sync.RWMutex
	byName  map[string]types.User
	byToken map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byName:  make(map[string]types.User),
		byToken: make(map[string]string),
	}
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byName[name]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByAccessToken(ctx context.Context, token string) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byToken[token]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return r.byName[name], nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[user.Name]; exists {
		return types.User{}, store.ErrDuplicateKey
	}
	if _, exists := r.byToken[user.AccessToken]; exists {
		return types.User{}, store.ErrDuplicateKey
	}
	r.byName[user.Name] = user
	r.byToken[user.AccessToken] = user.Name
	return user, nil
}
