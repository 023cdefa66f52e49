// Package sqlite implements repository.Store on top of SQLite.
//
// WHY A SECOND STORE?
// The in-memory store is what the test suites talk to. This one exists for
// long-running demo instances: point store.driver at "sqlite" with a file
// path and the poses you created survive a restart. With ":memory:" it
// behaves exactly like the memory store, which is how the shared contract
// tests exercise it.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// ID SEMANTICS:
// Every table uses INTEGER PRIMARY KEY AUTOINCREMENT. Plain INTEGER PRIMARY KEY
// may hand out max(rowid)+1 again after the newest row is deleted;
// AUTOINCREMENT records the high-water mark in sqlite_sequence so ids are
// never reused. Reset clears sqlite_sequence to restart the counters.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/pose-mock/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/poses.db"  → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// ONE CONNECTION:
	// Each connection to ":memory:" gets its own private database, so a pool
	// of several would see several different stores. SQLite also serializes
	// writers anyway. Pinning the pool to one connection fixes both; the
	// cost is that code must never run a query while a *sql.Rows from the
	// same pool is still open, or it would wait on itself.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight. ":memory:"
	// answers with journal_mode=memory, which is fine.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The category orphaning
	// rule is expressed as ON DELETE SET NULL, so they must be on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates every table. CREATE TABLE IF NOT EXISTS makes it safe to
// run on each start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     INTEGER NOT NULL,
			name        TEXT NOT NULL,
			description TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_categories_user_id ON categories(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating categories table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS poses (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id             INTEGER NOT NULL,
			code                TEXT NOT NULL,
			name                TEXT NOT NULL,
			name_en             TEXT,
			category_id         INTEGER REFERENCES categories(id) ON DELETE SET NULL,
			description         TEXT,
			effect              TEXT,
			breathing           TEXT,
			schema_path         TEXT,
			photo_path          TEXT,
			muscle_layer_path   TEXT,
			skeleton_layer_path TEXT,
			version             INTEGER NOT NULL DEFAULT 1,
			created_at          TEXT NOT NULL,
			updated_at          TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_poses_user_id ON poses(user_id);
		CREATE INDEX IF NOT EXISTS idx_poses_category_id ON poses(category_id);
	`)
	if err != nil {
		return fmt.Errorf("creating poses table: %w", err)
	}

	// Muscle names are copied into pose_muscles when the pose is written,
	// so there is no foreign key to muscles.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS pose_muscles (
			pose_id          INTEGER NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			position         INTEGER NOT NULL,
			muscle_id        INTEGER NOT NULL,
			muscle_name      TEXT NOT NULL,
			muscle_name_ua   TEXT,
			body_part        TEXT NOT NULL DEFAULT '',
			activation_level INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (pose_id, position)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating pose_muscles table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS muscles (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			name      TEXT NOT NULL,
			name_ua   TEXT,
			body_part TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating muscles table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sequences (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     INTEGER NOT NULL,
			name        TEXT NOT NULL,
			description TEXT,
			difficulty  TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sequences_user_id ON sequences(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating sequences table: %w", err)
	}

	// sequence_poses rows are snapshots; pose_id is deliberately not a
	// foreign key so a sequence keeps its entries after the pose is deleted.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sequence_poses (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			sequence_id      INTEGER NOT NULL REFERENCES sequences(id) ON DELETE CASCADE,
			pose_id          INTEGER NOT NULL,
			order_index      INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			transition_note  TEXT,
			pose_name        TEXT NOT NULL DEFAULT '',
			pose_code        TEXT NOT NULL DEFAULT '',
			pose_photo_path  TEXT,
			pose_schema_path TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_sequence_poses_sequence_id ON sequence_poses(sequence_id);
	`)
	if err != nil {
		return fmt.Errorf("creating sequence_poses table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS uploads (
			pose_id INTEGER NOT NULL,
			slot    TEXT NOT NULL,
			data    BLOB NOT NULL,
			PRIMARY KEY (pose_id, slot)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating uploads table: %w", err)
	}

	return nil
}

// Reset deletes every row and restarts the AUTOINCREMENT counters.
func (db *DB) Reset(ctx context.Context) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		// Children first so foreign keys never see a dangling parent.
		for _, table := range []string{
			"sequence_poses", "sequences", "pose_muscles", "uploads",
			"poses", "categories", "muscles",
		} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("sqlite: clearing %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence"); err != nil {
			return fmt.Errorf("sqlite: clearing id counters: %w", err)
		}
		return nil
	})
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// on error. fn must use tx for every statement: the pool has one connection.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// Timestamps are stored as RFC 3339 text with nanoseconds, always in UTC,
// so they sort lexically and round-trip exactly.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
