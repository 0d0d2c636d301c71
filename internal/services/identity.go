package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/happythoughts/apiserver/internal/store"
	"github.com/happythoughts/apiserver/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users. Create must
// reject duplicate names and tokens with store.ErrDuplicateKey.
type UserRepository interface {
	GetByName(ctx context.Context, name string) (types.User, error)
	GetByAccessToken(ctx context.Context, token string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// IdentityService registers users, verifies credentials and resolves
// access tokens.
type IdentityService struct {
	repo       UserRepository
	logger     *zap.Logger
	random     io.Reader
	now        func() time.Time
	bcryptCost int
}

func NewIdentityService(repo UserRepository, opts ...Option) *IdentityService {
	o := buildOptions(opts)
	return &IdentityService{
		repo:       repo,
		logger:     o.logger,
		random:     o.random,
		now:        o.now,
		bcryptCost: o.bcryptCost,
	}
}

// Register creates an account and issues its access token. Name
// uniqueness is left to the repository so concurrent registrations of
// the same name cannot both succeed.
func (s *IdentityService) Register(ctx context.Context, name, password string) (types.User, error) {
	if err := validateInput(registerInput{Name: name, Password: password}); err != nil {
		return types.User{}, err
	}

	hash, err := hashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return types.User{}, NewValidationError("Password", msgPasswordTooLong)
		}
		return types.User{}, fmt.Errorf("%w: hash password: %w", ErrInternal, err)
	}

	id, err := newHexID(s.random, idBytes)
	if err != nil {
		return types.User{}, fmt.Errorf("%w: generate user id: %w", ErrInternal, err)
	}
	token, err := newHexID(s.random, accessTokenBytes)
	if err != nil {
		return types.User{}, fmt.Errorf("%w: generate access token: %w", ErrInternal, err)
	}

	user, err := s.repo.Create(ctx, types.User{
		ID:           id,
		Name:         name,
		PasswordHash: hash,
		AccessToken:  token,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return types.User{}, fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return types.User{}, fmt.Errorf("register user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login checks a name and password. An unknown name and a wrong password
// both report found=false with no error so responses cannot be used to
// enumerate accounts.
func (s *IdentityService) Login(ctx context.Context, name, password string) (types.Credentials, bool, error) {
	if err := validateInput(loginInput{Password: password}); err != nil {
		return types.Credentials{}, false, err
	}

	user, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Credentials{}, false, nil
		}
		return types.Credentials{}, false, fmt.Errorf("login: %w", err)
	}

	if !passwordMatches(user.PasswordHash, password) {
		return types.Credentials{}, false, nil
	}

	return types.Credentials{UserName: user.Name, AccessToken: user.AccessToken}, true, nil
}

// ResolveToken finds the user owning an access token.
func (s *IdentityService) ResolveToken(ctx context.Context, token string) (types.User, bool, error) {
	if token == "" {
		return types.User{}, false, nil
	}
	user, err := s.repo.GetByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, false, nil
		}
		return types.User{}, false, fmt.Errorf("resolve token: %w", err)
	}
	return user, true, nil
}
