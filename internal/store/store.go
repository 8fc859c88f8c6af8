package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/datamove/internal/pipeline"
)

// Store records pass pipeline history and the graphs it saw.
type Store struct {
	db *sql.DB
}

var _ pipeline.Recorder = (*Store)(nil)

// ErrSchemaTooNew is returned by Open for a database written by a newer build.
var ErrSchemaTooNew = errors.New("history store schema is newer than this build")

// connParams are applied by the driver to every connection it opens.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_txlock":       {"immediate"},
}

// migration moves the schema to version. Statements run in one transaction
// together with the user_version bump.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations in order. user_version holds the last applied version.
var migrations = []migration{
	{
		version: 1,
		name:    "pass_runs",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS pass_runs (
				run_id       TEXT    NOT NULL,
				seq          INTEGER NOT NULL,
				pass         TEXT    NOT NULL,
				hash_before  TEXT    NOT NULL,
				hash_after   TEXT    NOT NULL DEFAULT '',
				modified     INTEGER NOT NULL DEFAULT 0,
				inserted     INTEGER NOT NULL DEFAULT 0,
				error        TEXT    NOT NULL DEFAULT '',
				tool_version TEXT    NOT NULL,
				PRIMARY KEY (run_id, seq)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_pass_runs_seq ON pass_runs(seq)`,
		},
	},
	{
		version: 2,
		name:    "graphs",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS graphs (
				hash       TEXT PRIMARY KEY,
				ir_version TEXT NOT NULL,
				canonical  BLOB NOT NULL
			)`,
		},
	},
	{
		version: 3,
		name:    "pass_runs_by_pass",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_pass_runs_pass ON pass_runs(pass, seq)`,
		},
	},
}

// schemaVersion is the version a fully migrated database reports.
func schemaVersion() int { return migrations[len(migrations)-1].version }

// Open creates or opens the history database at path and brings its schema
// up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	// One writer; a second connection would only wait on busy_timeout.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history store %s: %w", path, err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	v, err := s.pragma(ctx, "user_version")
	if err != nil {
		return err
	}
	version, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("schema version %q: %w", v, err)
	}
	if version > schemaVersion() {
		return fmt.Errorf("%w: version %d, expected at most %d", ErrSchemaTooNew, version, schemaVersion())
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	// PRAGMA does not take bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}

// pragma reads the current value of a SQLite pragma as text.
func (s *Store) pragma(ctx context.Context, name string) (string, error) {
	var value string
	if err := s.db.QueryRowContext(ctx, "PRAGMA "+name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
