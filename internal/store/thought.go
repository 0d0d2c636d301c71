package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/happythoughts/apiserver/types"
)

// ThoughtRepository handles persistence for thoughts.
type ThoughtRepository struct {
	db *sql.DB
}

func NewThoughtRepository(db *sql.DB) *ThoughtRepository {
	return &ThoughtRepository{db: db}
}

// List returns the newest thoughts first. The serial column breaks ties
// between rows sharing a creation timestamp.
func (r *ThoughtRepository) List(ctx context.Context, limit int) ([]types.Thought, error) {
	if limit < 1 {
		limit = 20
	}

	const query = `
		SELECT id, message, hearts, created_at
		FROM thoughts
		ORDER BY created_at DESC, seq DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list thoughts: %w", err)
	}
	defer rows.Close()

	thoughts := make([]types.Thought, 0, limit)
	for rows.Next() {
		var thought types.Thought
		if err := rows.Scan(
			&thought.ID,
			&thought.Message,
			&thought.Hearts,
			&thought.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan thought: %w", err)
		}
		thoughts = append(thoughts, thought)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list thoughts: %w", err)
	}

	return thoughts, nil
}

func (r *ThoughtRepository) Get(ctx context.Context, id string) (types.Thought, error) {
	const query = `
		SELECT id, message, hearts, created_at
		FROM thoughts
		WHERE id = $1`
	var thought types.Thought
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&thought.ID,
		&thought.Message,
		&thought.Hearts,
		&thought.CreatedAt,
	)
	if err != nil {
		return types.Thought{}, mapError(err)
	}
	return thought, nil
}

// Insert stores a new thought. A clash on the primary key is reported as
// ErrDuplicateKey so the caller can re-roll the id.
func (r *ThoughtRepository) Insert(ctx context.Context, thought types.Thought) (types.Thought, error) {
	const query = `
		INSERT INTO thoughts (id, message, hearts, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		thought.ID,
		thought.Message,
		thought.Hearts,
		thought.CreatedAt,
	).Scan(&thought.CreatedAt); err != nil {
		return types.Thought{}, mapError(err)
	}
	return thought, nil
}

// IncrementHearts adds one like in a single statement and returns the
// updated row.
func (r *ThoughtRepository) IncrementHearts(ctx context.Context, id string) (types.Thought, error) {
	const query = `
		UPDATE thoughts
		SET hearts = hearts + 1
		WHERE id = $1
		RETURNING id, message, hearts, created_at`
	var thought types.Thought
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&thought.ID,
		&thought.Message,
		&thought.Hearts,
		&thought.CreatedAt,
	)
	if err != nil {
		return types.Thought{}, mapError(err)
	}
	return thought, nil
}

func (r *ThoughtRepository) Delete(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM thoughts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
