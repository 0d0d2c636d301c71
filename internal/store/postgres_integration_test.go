//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/happythoughts/apiserver/internal/db"
	"github.com/happythoughts/apiserver/internal/store"
	"github.com/happythoughts/apiserver/internal/store/storetest"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()

	pgOnce.Do(func() {
		pgDSN, pgErr = startPostgres()
	})
	if pgErr != nil {
		t.Fatalf("setup postgres: %v", pgErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := db.OpenDSN(ctx, pgDSN)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `TRUNCATE thoughts, users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func startPostgres() (string, error) {
	if dsn := os.Getenv("TEST_DATABASE_DSN"); dsn != "" {
		return dsn, db.MigrateUp(dsn)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	if err := db.MigrateUp(dsn); err != nil {
		return "", err
	}
	return dsn, nil
}

func TestPostgresThoughtRepository(t *testing.T) {
	storetest.RunThoughtRepository(t, func(t *testing.T) storetest.ThoughtRepository {
		return store.NewThoughtRepository(setupPostgres(t))
	})
}

func TestPostgresUserRepository(t *testing.T) {
	storetest.RunUserRepository(t, func(t *testing.T) storetest.UserRepository {
		return store.NewUserRepository(setupPostgres(t))
	})
}
