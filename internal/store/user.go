package store

import (
	"context"
	"database/sql"

	"github.com/happythoughts/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (types.User, error) {
	const query = `
		SELECT id, name, password_hash, access_token, created_at
		FROM users
		WHERE name = $1`
	return r.getOne(ctx, query, name)
}

func (r *UserRepository) GetByAccessToken(ctx context.Context, token string) (types.User, error) {
	const query = `
		SELECT id, name, password_hash, access_token, created_at
		FROM users
		WHERE access_token = $1`
	return r.getOne(ctx, query, token)
}

// Create inserts a user. The unique constraints on name and access_token
// decide concurrent registrations; a violation returns ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		INSERT INTO users (id, name, password_hash, access_token, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.PasswordHash,
		user.AccessToken,
		user.CreatedAt,
	).Scan(&user.CreatedAt); err != nil {
		return types.User{}, mapError(err)
	}
	return user, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (types.User, error) {
	var user types.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.PasswordHash,
		&user.AccessToken,
		&user.CreatedAt,
	)
	if err != nil {
		return types.User{}, mapError(err)
	}
	return user, nil
}
