package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/index"
)

// SQLiteStore keeps an index as (nickname, path) postings in SQLite.
// Nicknames with an empty file set cannot be represented and are dropped.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	closed bool
}

// NicknameCount is a nickname and the number of files it appears in.
type NicknameCount struct {
	Nickname string
	Files    int
}

// OpenSQLite opens or creates the database at path for writing. An empty path
// opens an in-memory database, used by tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, werrors.FileAccess(path, err)
		}
		dsn = path
	}

	s, err := openSQLite(dsn, path)
	if err != nil {
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = s.db.Close()
		return nil, werrors.MalformedIndex(fmt.Sprintf("%s is not a whosaid index database", path), err)
	}
	return s, nil
}

// OpenSQLiteReadOnly opens an existing index database for queries. The file is
// never created or modified; a database without a postings table is a
// malformed index.
func OpenSQLiteReadOnly(path string) (*SQLiteStore, error) {
	if _, err := statFile(path); err != nil {
		return nil, err
	}
	dsn := (&url.URL{Scheme: "file", OmitHost: true, Path: path, RawQuery: "mode=ro"}).String()

	s, err := openSQLite(dsn, path)
	if err != nil {
		return nil, err
	}
	if err := s.checkSchema(); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func openSQLite(dsn, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, werrors.FileAccess(path, fmt.Errorf("failed to open database: %w", err))
	}
	// One connection: an in-memory database exists per connection, and a
	// single writer avoids lock contention on files.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, werrors.FileAccess(path, fmt.Errorf("failed to set pragma: %w", err))
		}
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// checkSchema fails unless the database holds a postings table.
func (s *SQLiteStore) checkSchema() error {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'postings'").Scan(&n)
	if err != nil {
		return werrors.MalformedIndex(fmt.Sprintf("%s is not a whosaid index database", s.path), err)
	}
	if n == 0 {
		return werrors.MalformedIndex(fmt.Sprintf("%s is not a whosaid index database", s.path),
			fmt.Errorf("no postings table"))
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS postings (
		nickname TEXT NOT NULL,
		path     TEXT NOT NULL,
		PRIMARY KEY (nickname, path)
	) WITHOUT ROWID;

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save replaces the stored index with idx in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, idx index.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM postings"); err != nil {
		return fmt.Errorf("failed to clear postings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO postings (nickname, path) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, n := range idx.Nicknames() {
		for _, p := range idx[n].Sorted() {
			if _, err := stmt.ExecContext(ctx, n, p); err != nil {
				return fmt.Errorf("failed to insert posting: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}

// Load reads the whole stored index.
func (s *SQLiteStore) Load(ctx context.Context) (index.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT nickname, path FROM postings")
	if err != nil {
		return nil, werrors.MalformedIndex("failed to read postings", err)
	}
	defer func() { _ = rows.Close() }()

	idx := make(index.Index)
	for rows.Next() {
		var n, p string
		if err := rows.Scan(&n, &p); err != nil {
			return nil, werrors.MalformedIndex("failed to read posting", err)
		}
		paths, ok := idx[n]
		if !ok {
			paths = make(index.PathSet)
			idx[n] = paths
		}
		paths[p] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, werrors.MalformedIndex("failed to read postings", err)
	}
	return idx, nil
}

// Resolve returns the union of the files of nicks without loading the whole
// index. It fails on the first nickname, in request order, that has no
// postings.
func (s *SQLiteStore) Resolve(ctx context.Context, nicks []string) (index.PathSet, error) {
	if len(nicks) == 0 {
		return nil, werrors.ValidationError("at least one nickname is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	out := make(index.PathSet)
	for _, n := range nicks {
		found, err := s.collectPaths(ctx, n, out)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, werrors.NicknameNotFound(n)
		}
	}
	return out, nil
}

func (s *SQLiteStore) collectPaths(ctx context.Context, nick string, into index.PathSet) (bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM postings WHERE nickname = ?", nick)
	if err != nil {
		return false, werrors.MalformedIndex("failed to query postings", err)
	}
	defer func() { _ = rows.Close() }()

	found := false
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return false, werrors.MalformedIndex("failed to read posting", err)
		}
		into[p] = struct{}{}
		found = true
	}
	if err := rows.Err(); err != nil {
		return false, werrors.MalformedIndex("failed to query postings", err)
	}
	return found, nil
}

// Nicknames returns every nickname with its file count, sorted by nickname.
func (s *SQLiteStore) Nicknames(ctx context.Context) ([]NicknameCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT nickname, COUNT(*) FROM postings GROUP BY nickname ORDER BY nickname")
	if err != nil {
		return nil, werrors.MalformedIndex("failed to list nicknames", err)
	}
	defer func() { _ = rows.Close() }()

	var out []NicknameCount
	for rows.Next() {
		var nc NicknameCount
		if err := rows.Scan(&nc.Nickname, &nc.Files); err != nil {
			return nil, werrors.MalformedIndex("failed to list nicknames", err)
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

// Path returns the database path ("" for in-memory).
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database. Safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Counts returns the nickname file counts of an in-memory index, in the same
// shape as SQLiteStore.Nicknames.
func Counts(idx index.Index) []NicknameCount {
	out := make([]NicknameCount, 0, len(idx))
	for _, n := range idx.Nicknames() {
		out = append(out, NicknameCount{Nickname: n, Files: len(idx[n])})
	}
	return out
}
