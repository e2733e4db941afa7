// Package store persists learner progress. The local SQLite database holds
// the append-only event ledger and, by default, the learner documents;
// documents can also live in Postgres or Redis (see OpenDocuments).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	_ "modernc.org/sqlite"
)

const appName = "ladder"

// sqlitePragmas are applied by the driver to every pooled connection.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// Store is the local SQLite database.
type Store struct {
	db   *sql.DB
	drv  *entsql.Driver
	seq  *sequence
	docs *sqliteDocuments
}

// Open connects to the SQLite database at dsn, which may be a file path
// or a "file:" URI, and migrates it to the current schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", pragmaDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite takes one writer at a time; a single connection avoids
	// SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), drv.Close())
	}
	return &Store{db: db, drv: drv, seq: newSequence(db), docs: newSQLiteDocuments(db)}, nil
}

func pragmaDSN(dsn string) string {
	q := url.Values{}
	for _, p := range sqlitePragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + q.Encode()
}

// DB exposes the connection for ad-hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

// EventRepo is the event ledger in this database.
func (s *Store) EventRepo() EventRepo { return &eventRepo{db: s.db, seq: s.seq} }

// Documents is the learner document store in this database.
func (s *Store) Documents() DocumentStore { return s.docs }

// Close ends document subscriptions and closes the database.
func (s *Store) Close() error {
	s.docs.hub.closeAll()
	return s.drv.Close()
}

// DefaultDBPath is $LADDER_DB when set, otherwise ladder.db in DataDir.
// The parent directory is created.
func DefaultDBPath() (string, error) {
	p := os.Getenv("LADDER_DB")
	if p == "" {
		dir, err := DataDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(dir, appName+".db")
	}
	return p, EnsureDir(p)
}

// DataDir is $XDG_DATA_HOME/ladder, falling back to ~/.local/share/ladder.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// EnsureDir creates the directory that will hold path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
