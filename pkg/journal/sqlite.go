package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
	closeOnce  sync.Once

	appendStmt *sql.Stmt
	trimStmt   *sql.Stmt
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// DBPath is the path to the database file. Its directory is created
	// when missing.
	DBPath string

	// MaxEntries is the number of entries kept.
	// Default: DefaultMaxEntries
	MaxEntries int

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS reloads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at INTEGER NOT NULL,
	path TEXT NOT NULL,
	outcome TEXT NOT NULL,
	generation INTEGER NOT NULL,
	rules INTEGER NOT NULL,
	errors INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reloads_recorded_at ON reloads(recorded_at);
CREATE INDEX IF NOT EXISTS idx_reloads_outcome ON reloads(outcome);
`

// NewSQLiteStore opens or creates the journal database.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path cannot be empty")
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.DBPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:         db,
		maxEntries: cfg.MaxEntries,
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.appendStmt, err = s.db.Prepare(`
		INSERT INTO reloads (recorded_at, path, outcome, generation, rules, errors)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare append statement: %w", err)
	}

	s.trimStmt, err = s.db.Prepare(`
		DELETE FROM reloads
		WHERE id <= (SELECT id FROM reloads ORDER BY id DESC LIMIT 1 OFFSET ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trim statement: %w", err)
	}

	return nil
}

// Append records e and trims the oldest entries beyond the configured limit.
func (s *SQLiteStore) Append(ctx context.Context, e *Entry) error {
	if e == nil {
		return errors.New("entry cannot be nil")
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	result, err := s.appendStmt.ExecContext(ctx,
		e.Time.UnixNano(),
		e.Path,
		e.Outcome,
		int64(e.Generation),
		e.Rules,
		e.Errors,
	)
	if err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get entry id: %w", err)
	}
	e.ID = id

	if _, err := s.trimStmt.ExecContext(ctx, s.maxEntries); err != nil {
		return fmt.Errorf("failed to trim journal: %w", err)
	}
	return nil
}

// List returns matching entries, newest first.
func (s *SQLiteStore) List(ctx context.Context, q Query) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if q.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, q.Outcome)
	}
	if !q.Since.IsZero() {
		where = append(where, "recorded_at >= ?")
		args = append(args, q.Since.UnixNano())
	}

	query := "SELECT id, recorded_at, path, outcome, generation, rules, errors FROM reloads"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			recordedAt int64
			generation int64
		)
		if err := rows.Scan(&e.ID, &recordedAt, &e.Path, &e.Outcome, &generation, &e.Rules, &e.Errors); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Time = time.Unix(0, recordedAt)
		e.Generation = uint64(generation)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// Close releases the database. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		if s.appendStmt != nil {
			s.appendStmt.Close()
		}
		if s.trimStmt != nil {
			s.trimStmt.Close()
		}
		closeErr = s.db.Close()
	})
	return closeErr
}
