// Package sqlite implements the driven storage ports on top of SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const (
	writerConns = 1
	readerConns = 4
)

// pragmas apply to every connection. secure_delete zeroes freed pages so
// removed ciphertext does not linger in the file.
var pragmas = []string{
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"secure_delete(ON)",
	"cache_size(-64000)",
}

// uriEscaper keeps '?' and '#' in a file name from being read as URI syntax.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// DB provides dual reader/writer database connections with WAL mode enabled.
// The writer pool holds a single connection to avoid "database is locked"
// errors; up to four readers run concurrently.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens the database file at dbPath in WAL mode.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	return openDB(ctx, dbPath, buildDSN(uriEscaper.Replace(dbPath), "_pragma=journal_mode(WAL)"))
}

// buildDSN assembles a modernc URI filename with the shared pragmas appended
// after params.
func buildDSN(name string, params ...string) string {
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	return "file:" + name + "?" + strings.Join(params, "&")
}

func openDB(ctx context.Context, path, dsn string) (*DB, error) {
	writer, err := openPool(ctx, dsn, writerConns)
	if err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}

	reader, err := openPool(ctx, dsn, readerConns)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("reader: %w", err)
	}

	return &DB{
		Writer: writer,
		Reader: reader,
		path:   path,
	}, nil
}

func openPool(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	pool.SetMaxOpenConns(maxConns)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Close closes both reader and writer connections. Returns the first error encountered.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
