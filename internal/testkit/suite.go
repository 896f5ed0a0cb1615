package testkit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver registration
	"github.com/redis/go-redis/v9"
)

// Suite manages the test infrastructure and the clients connected to it.
type Suite struct {
	mu    sync.Mutex
	cfg   Config
	pg    *PostgresModule
	redis *RedisModule
	db    *sql.DB
	rdb   *redis.Client
	ready bool
}

var (
	globalSuite *Suite
	globalOnce  sync.Once
)

// Global returns the singleton Suite instance.
func Global() *Suite {
	globalOnce.Do(func() {
		globalSuite = &Suite{cfg: LoadConfig()}
	})
	return globalSuite
}

// Setup starts all required containers (or uses external overrides) and
// connects to them. Returns an error if called twice without Shutdown.
func (s *Suite) Setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return fmt.Errorf("suite already set up; call Shutdown first")
	}

	pg, err := StartPostgres(ctx, &s.cfg)
	if err != nil {
		return fmt.Errorf("setup postgres: %w", err)
	}
	s.pg = pg

	rm, err := StartRedis(ctx, &s.cfg)
	if err != nil {
		s.terminate(ctx)
		return fmt.Errorf("setup redis: %w", err)
	}
	s.redis = rm

	s.db, err = sql.Open("pgx", pg.DSN())
	if err == nil {
		err = s.db.PingContext(ctx)
	}
	if err != nil {
		s.terminate(ctx)
		return fmt.Errorf("connect postgres: %w", err)
	}

	s.rdb = redis.NewClient(&redis.Options{Addr: rm.Addr()})
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		s.terminate(ctx)
		return fmt.Errorf("connect redis: %w", err)
	}

	s.ready = true
	return nil
}

// Shutdown closes the clients and terminates all containers unless
// FXRESOLVER_TEST_KEEP_CONTAINERS is set.
func (s *Suite) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return
	}
	s.terminate(ctx)
	s.ready = false
}

// terminate must be called with mu held.
func (s *Suite) terminate(ctx context.Context) {
	if s.rdb != nil {
		_ = s.rdb.Close()
		s.rdb = nil
	}
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}

	if s.cfg.KeepContainers {
		fmt.Println("FXRESOLVER_TEST_KEEP_CONTAINERS=true, skipping container cleanup")
		if s.pg != nil {
			fmt.Println("  Postgres DSN:", s.pg.DSN())
		}
		if s.redis != nil {
			fmt.Println("  Redis Addr:", s.redis.Addr())
		}
		return
	}

	if s.redis != nil {
		if err := s.redis.Terminate(ctx); err != nil {
			fmt.Println("warning: failed to terminate redis container:", err)
		}
	}
	if s.pg != nil {
		if err := s.pg.Terminate(ctx); err != nil {
			fmt.Println("warning: failed to terminate postgres container:", err)
		}
	}
}

// DB returns the connection pool of the test database.
func (s *Suite) DB() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Redis returns the client of the test Redis instance.
func (s *Suite) Redis() *redis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rdb
}

// RedisAddr returns the host:port address for the test Redis instance.
func (s *Suite) RedisAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redis == nil {
		return ""
	}
	return s.redis.Addr()
}

// Reset truncates tables and flushes the Redis database.
func (s *Suite) Reset(t *testing.T, tables ...string) {
	t.Helper()
	ctx := context.Background()

	if len(tables) > 0 {
		if _, err := s.DB().ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(tables, ", ")+" CASCADE"); err != nil {
			t.Fatalf("failed to truncate %v: %v", tables, err)
		}
	}
	if err := s.Redis().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

// Run sets up the suite, calls optional afterSetup callbacks (e.g. for
// running migrations), executes tests, then shuts down. Intended for use
// in TestMain.
func (s *Suite) Run(m *testing.M, afterSetup ...func(*Suite) error) {
	ctx := context.Background()

	if err := s.Setup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "integration test setup failed: %v\n", err)
		os.Exit(1)
	}

	for _, fn := range afterSetup {
		if err := fn(s); err != nil {
			fmt.Fprintf(os.Stderr, "afterSetup callback failed: %v\n", err)
			s.Shutdown(ctx)
			os.Exit(1)
		}
	}

	code := m.Run()

	s.Shutdown(ctx)
	os.Exit(code)
}

// Run is a package-level convenience that delegates to Global().Run.
func Run(m *testing.M, afterSetup ...func(*Suite) error) {
	Global().Run(m, afterSetup...)
}
