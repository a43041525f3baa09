// Package dbtest provides an ephemeral PostgreSQL store for tests.
//
// One container is started per test binary from TestMain. Each test that
// calls Setup gets the schema applied from the same embedded migrations
// the service runs, and the public schema is dropped again when the test
// finishes, so every test starts from an empty users table.
//
//	func TestMain(m *testing.M) { os.Exit(dbtest.Main(m)) }
//
//	func TestSomething(t *testing.T) {
//	    pool := dbtest.Setup(t)
//	    ...
//	}
package dbtest

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"testing"
	"time"

	"github.com/deppfellow/userstore/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Image is the PostgreSQL image used for the ephemeral store.
const Image = "postgres:16-alpine"

// Store is a running PostgreSQL container and a pool connected to it.
type Store struct {
	Pool *pgxpool.Pool
	URL  string

	container *postgres.PostgresContainer
}

var (
	shared   *Store
	startErr error
)

// Start launches a container and connects a pool to it.
//
// testcontainers panics when it cannot find a Docker host at all; that is
// reported as an error here so callers can skip instead of crash.
func Start(ctx context.Context) (store *Store, err error) {
	defer func() {
		if r := recover(); r != nil {
			store, err = nil, fmt.Errorf("starting postgres container: %v", r)
		}
	}()

	ctr, err := postgres.Run(ctx,
		Image,
		postgres.WithDatabase("userstore_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		if ctr != nil {
			_ = ctr.Terminate(ctx)
		}
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("getting connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("connecting to postgres container: %w", err)
	}

	return &Store{Pool: pool, URL: url, container: ctr}, nil
}

// Migrate recreates the public schema if needed and applies all migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS public`); err != nil {
		return fmt.Errorf("creating public schema: %w", err)
	}
	log := zerolog.Nop()
	return database.Migrate(ctx, &log, s.URL)
}

// Reset drops everything the migrations created, including tern's version
// table, and recycles pool connections so no statement cached against the
// old tables survives.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, `DROP SCHEMA IF EXISTS public CASCADE`); err != nil {
		return fmt.Errorf("dropping public schema: %w", err)
	}
	s.Pool.Reset()
	return nil
}

// Terminate closes the pool and removes the container.
func (s *Store) Terminate(ctx context.Context) error {
	s.Pool.Close()
	return s.container.Terminate(ctx)
}

// Main starts the shared store, runs the tests and tears the store down.
// Under -short no container is started and Setup skips.
func Main(m *testing.M) int {
	flag.Parse()

	if testing.Short() {
		startErr = errors.New("skipped in -short mode")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		shared, startErr = Start(ctx)
		cancel()
	}

	code := m.Run()

	if shared != nil {
		_ = shared.Terminate(context.Background())
	}
	return code
}

// Setup migrates the shared store for the calling test and registers the
// teardown. It skips the test when no store could be started.
func Setup(t testing.TB) *pgxpool.Pool {
	t.Helper()

	if shared == nil {
		t.Skipf("ephemeral postgres unavailable: %v", startErr)
	}

	ctx := context.Background()
	require.NoError(t, shared.Migrate(ctx), "applying migrations")

	t.Cleanup(func() {
		if err := shared.Reset(context.Background()); err != nil {
			t.Errorf("resetting database: %v", err)
		}
	})

	return shared.Pool
}
