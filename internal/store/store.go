package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a database from version-1 to version. schema.sql
// always describes the newest layout, so migrations only patch databases
// created by older builds.
type migration struct {
	version int
	stmt    string
}

var migrations = []migration{
	{1, `CREATE INDEX IF NOT EXISTS idx_operations_run_op ON operations(run_id, op)`},
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = migrations[len(migrations)-1].version

// Store is the SQLite archive of build runs and their kernel journals.
// WAL mode keeps trace and replay readers off the writer's lock.
type Store struct {
	db *sql.DB
}

// Open creates or opens the run database at path. ":memory:" gives a
// private in-memory store.
//
// The connection is configured with:
//   - WAL journaling
//   - NORMAL synchronous mode
//   - 5-second busy timeout
//   - foreign key enforcement (journal rows cascade with their run)
//
// Opening an existing database is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}

	for _, step := range []struct {
		name string
		fn   func(*sql.DB) error
	}{
		{"apply pragmas", applyPragmas},
		{"apply schema", applySchema},
		{"migrate", migrate},
	} {
		if err := step.fn(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to %s: %w", step.name, err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

// migrate runs every migration newer than the database's user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
