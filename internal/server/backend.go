package server

import (
	"context"
	"fmt"

	"github.com/happythoughts/apiserver/config"
	"github.com/happythoughts/apiserver/internal/db"
	"github.com/happythoughts/apiserver/internal/services"
	"github.com/happythoughts/apiserver/internal/store"
	"github.com/happythoughts/apiserver/internal/store/memory"
	"github.com/happythoughts/apiserver/internal/store/mongostore"
)

// Repositories bundles the persistence layer selected by configuration.
type Repositories struct {
	Thoughts services.ThoughtRepository
	Users    services.UserRepository
	close    func(ctx context.Context) error
}

// Close releases the connections held by the backend.
func (r Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// OpenRepositories connects the storage backend named by cfg.StoreBackend.
// The Postgres schema is expected to be migrated already.
func OpenRepositories(ctx context.Context, cfg config.Config) (Repositories, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return Repositories{
			Thoughts: memory.NewThoughtRepository(),
			Users:    memory.NewUserRepository(),
		}, nil

	case config.BackendPostgres:
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return Repositories{}, fmt.Errorf("open postgres: %w", err)
		}
		return Repositories{
			Thoughts: store.NewThoughtRepository(conn),
			Users:    store.NewUserRepository(conn),
			close: func(context.Context) error {
				return conn.Close()
			},
		}, nil

	case config.BackendMongo:
		database, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return Repositories{}, fmt.Errorf("open mongo: %w", err)
		}
		if err := mongostore.EnsureIndexes(ctx, database); err != nil {
			_ = database.Client().Disconnect(context.Background())
			return Repositories{}, err
		}
		return Repositories{
			Thoughts: mongostore.NewThoughtRepository(database),
			Users:    mongostore.NewUserRepository(database),
			close:    database.Client().Disconnect,
		}, nil

	default:
		return Repositories{}, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
