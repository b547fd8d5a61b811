// Package store provides explicit open/close handles over the file-backed
// SQLite stores that hold decoded extract tables.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	// sqlite driver for extract databases.
	_ "modernc.org/sqlite"
)

// insertBatchRows bounds rows per INSERT so the bound-parameter count stays
// under SQLite's default limit even for wide layouts.
const insertBatchRows = 50

// Store is a handle to a file-backed SQLite store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the store at path for read-write access.
func Open(path string) (*Store, error) {
	return open(path, path)
}

// OpenReadOnly opens an existing store at path for read-only access.
// A missing path fails with *SourceMissingError.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &SourceMissingError{Path: path, Err: err}
	}
	return open(path, path+"?mode=ro")
}

// Create opens a brand-new store at path. An existing path fails with
// *DestinationExistsError before anything is written.
func Create(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, &DestinationExistsError{Path: path}
	}
	return open(path, path)
}

// FromDB wraps an already-open connection in a Store. Intended for tests
// and callers that manage the connection lifecycle themselves.
func FromDB(db *sql.DB, path string) *Store {
	return &Store{db: db, path: path}
}

func open(path, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	// One connection keeps session state such as ATTACH aliases visible to
	// every subsequent statement; all operations are synchronous anyway.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping store %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the file path the store was opened on.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying connection for ad-hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

// Tables returns the names of every table in the store.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not opened")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`)
	if err != nil {
		return nil, &AccessError{Op: "list tables", Err: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &AccessError{Op: "list tables", Err: err}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &AccessError{Op: "list tables", Err: err}
	}
	return names, nil
}

// FirstColumn returns the name of the first-declared column of table.
func (s *Store) FirstColumn(ctx context.Context, table string) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("store not opened")
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, QuoteIdent(table)))
	if err != nil {
		return "", &AccessError{Op: "table info", Table: table, Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", &AccessError{Op: "table info", Table: table, Err: err}
		}
		return "", &AccessError{Op: "table info", Table: table, Err: fmt.Errorf("no columns")}
	}
	var (
		cid        int
		name, typ  string
		notNull    int
		defaultVal sql.NullString
		pk         int
	)
	if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
		return "", &AccessError{Op: "table info", Table: table, Err: err}
	}
	return name, nil
}

// ReplaceTable drops any existing table of the same name and recreates it
// with the given TEXT columns and rows, all within one transaction. Column
// order is preserved. Nil row values become NULL.
func (s *Store) ReplaceTable(ctx context.Context, table string, columns []string, rows [][]any) error {
	if s.db == nil {
		return fmt.Errorf("store not opened")
	}
	if len(columns) == 0 {
		return fmt.Errorf("table %s: no columns", table)
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c) + " TEXT"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &AccessError{Op: "begin", Table: table, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, QuoteIdent(table))); err != nil {
		return &AccessError{Op: "drop", Table: table, Err: err}
	}
	create := fmt.Sprintf(`CREATE TABLE %s (%s)`, QuoteIdent(table), strings.Join(quoted, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return &AccessError{Op: "create", Table: table, Err: err}
	}

	for lo := 0; lo < len(rows); lo += insertBatchRows {
		hi := lo + insertBatchRows
		if hi > len(rows) {
			hi = len(rows)
		}
		if err := insertBatch(ctx, tx, table, len(columns), rows[lo:hi]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return &AccessError{Op: "commit", Table: table, Err: err}
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, table string, width int, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tuple := "(" + Placeholders(width) + ")"
	tuples := make([]string, len(rows))
	args := make([]any, 0, len(rows)*width)
	for i, row := range rows {
		tuples[i] = tuple
		args = append(args, row...)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s VALUES %s`, QuoteIdent(table), strings.Join(tuples, ", "))
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return &AccessError{Op: "insert", Table: table, Err: err}
	}
	return nil
}

// CreateColumnIndex creates a plain (non-unique) index on one column of a
// table. Duplicate column values are expected and legal.
func (s *Store) CreateColumnIndex(ctx context.Context, table, column string) error {
	if s.db == nil {
		return fmt.Errorf("store not opened")
	}
	name := fmt.Sprintf("idx_%s_%s", table, column)
	stmt := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`,
		QuoteIdent(name), QuoteIdent(table), QuoteIdent(column))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return &AccessError{Op: "index", Table: table, Err: err}
	}
	return nil
}

// Attach attaches another store file under the given alias.
func (s *Store) Attach(ctx context.Context, path, alias string) error {
	if s.db == nil {
		return fmt.Errorf("store not opened")
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`ATTACH DATABASE ? AS %s`, QuoteIdent(alias)), path); err != nil {
		return &AccessError{Op: "attach " + path, Err: err}
	}
	return nil
}

// Detach detaches a previously attached alias.
func (s *Store) Detach(ctx context.Context, alias string) error {
	if s.db == nil {
		return fmt.Errorf("store not opened")
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DETACH DATABASE %s`, QuoteIdent(alias))); err != nil {
		return &AccessError{Op: "detach " + alias, Err: err}
	}
	return nil
}

// QuoteIdent quotes an identifier for use in SQL statements. Table and
// column names come from file names and description documents, never from
// query values, but they can still collide with keywords.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholders returns n comma-separated bound-parameter markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
