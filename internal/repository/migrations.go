package repository

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockKey serializes migrations across instances starting together.
const migrationLockKey = 0x6678726573 // "fxres"

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// RunMigrations applies the embedded SQL migrations that are not yet
// recorded in schema_migrations, in file name order, each in its own
// transaction.
func RunMigrations(db *sql.DB, log *zap.SugaredLogger) error {
	if _, err := db.Exec(createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("migrations read error: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		name := file.Name()
		version := strings.TrimSuffix(name, ".sql")
		sqlBytes, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", name, err)
		}

		applied, err := applyMigration(db, version, string(sqlBytes))
		if err != nil {
			return err
		}
		if applied {
			log.Infow("Applied migration", "version", version)
		} else {
			log.Debugw("Migration already applied", "version", version)
		}
	}
	return nil
}

// applyMigration runs script under a transaction-scoped advisory lock and
// records version. It reports false when version was already recorded.
func applyMigration(db *sql.DB, version, script string) (applied bool, err error) {
	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin transaction for migration %s: %w", version, err)
	}
	defer func() {
		if err != nil || !applied {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
		return false, fmt.Errorf("lock for migration %s: %w", version, err)
	}

	var exists bool
	if err = tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	if exists {
		return false, nil
	}

	if _, err = tx.Exec(script); err != nil {
		return false, fmt.Errorf("execute migration %s: %w", version, err)
	}
	if _, err = tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return false, fmt.Errorf("record migration %s: %w", version, err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit migration %s: %w", version, err)
	}
	return true, nil
}
