// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Single-server deployments (which is most apps, honestly)
// - Development and testing (use ":memory:" for an in-memory DB)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// CONCURRENCY BACKSTOP:
// The unique indexes on users(email), users(github_id) and users(google_id)
// are what make account creation safe under concurrent requests. The service
// layer does a polite lookup first, but the index is the authority: two
// racing inserts cannot both win, and the loser gets a conflict error it can
// recover from.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"

	// BLANK IMPORT:
	// The underscore import is a "side-effect only" import: the package's
	// init() registers itself with database/sql as a driver named "sqlite".
	// After this import, sql.Open("sqlite", ...) knows how to talk to SQLite.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. Repository implementations hang off it
// via Users() and Jobs(), which share the same pool.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/jobpilot.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
//
// sql.Open() does NOT actually open a connection — it creates a pool
// manager. We call Ping() to force an immediate connection so a bad path or
// permissions issue surfaces here, not on the first query.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// default SQLite locks the whole file during writes, which stalls a
	// web server under load.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// We need them for saved_jobs/applications → users/jobs integrity.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	// Wait up to 5s for a locked database instead of failing instantly.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Defer it right after New().
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository backed by this pool.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Jobs returns the job repository backed by this pool.
func (db *DB) Jobs() *JobDB {
	return &JobDB{conn: db.conn}
}

// migrate runs all database migrations.
//
// CREATE TABLE IF NOT EXISTS is idempotent — safe on every startup. For a
// bigger deployment you'd reach for golang-migrate, which tracks applied
// versions; a single-binary app doesn't need that yet.
func (db *DB) migrate() error {
	// The partial unique indexes on github_id/google_id are deliberate:
	// '' means "not linked", and a plain UNIQUE column would let only one
	// unlinked user exist.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     TEXT NOT NULL DEFAULT '',
			google_id     TEXT NOT NULL DEFAULT '',
			display_name  TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			bio           TEXT NOT NULL DEFAULT '',
			location      TEXT NOT NULL DEFAULT '',
			linkedin_url  TEXT NOT NULL DEFAULT '',
			github_url    TEXT NOT NULL DEFAULT '',
			resume_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != '';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_id
			ON users(google_id) WHERE google_id != '';
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			company          TEXT NOT NULL,
			location         TEXT NOT NULL,
			job_type         TEXT NOT NULL,
			salary_min       INTEGER NOT NULL DEFAULT 0,
			salary_max       INTEGER NOT NULL DEFAULT 0,
			skills           TEXT NOT NULL DEFAULT '[]',
			description      TEXT NOT NULL,
			application_link TEXT NOT NULL,
			contact_email    TEXT NOT NULL,
			logo_url         TEXT NOT NULL DEFAULT '',
			posted_by        TEXT NOT NULL DEFAULT '',
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating jobs table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS saved_jobs (
			user_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			job_id   TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, job_id)
		);
		CREATE TABLE IF NOT EXISTS applications (
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			job_id     TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			applied_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, job_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating relation tables: %w", err)
	}

	return nil
}

// translateErr maps driver-level failures onto the repository error
// contract. Called on every write/read error before wrapping.
//
// modernc.org/sqlite doesn't export typed constraint errors through
// database/sql, so the unique-violation check matches the message text —
// same approach as matching pq/mysql error codes, just stringly. The
// message always names the index columns, which lets us report WHICH key
// collided.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// NOT a NotFound: the record may well exist, we just couldn't
		// reach the storage in time.
		return apperror.Unavailable("storage did not respond in time")
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		switch {
		case strings.Contains(msg, "users.email"):
			return apperror.Conflict("a user with this email already exists")
		case strings.Contains(msg, "users.github_id"):
			return apperror.Conflict("this github account is already linked to another user")
		case strings.Contains(msg, "users.google_id"):
			return apperror.Conflict("this google account is already linked to another user")
		default:
			return apperror.Conflict("record already exists")
		}
	}

	return err
}

// notFoundOr converts sql.ErrNoRows into the taxonomy, leaving other errors
// to translateErr.
func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}
	return translateErr(err)
}
