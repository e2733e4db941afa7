package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// sqliteDocuments stores each document path as one row of the documents
// table, keyed by (doc_key, path). Values are JSON text.
type sqliteDocuments struct {
	db  *sql.DB
	hub *hub
}

func newSQLiteDocuments(db *sql.DB) *sqliteDocuments {
	return &sqliteDocuments{db: db, hub: newHub()}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *sqliteDocuments) Get(ctx context.Context, key string) (Document, error) {
	doc, err := readDocument(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("document %q: %w", key, ErrNotFound)
	}
	return doc, nil
}

func readDocument(ctx context.Context, q querier, key string) (Document, error) {
	t := entsql.Table(tableDocuments)
	query, args := builder().Select(t.C("path"), t.C("value")).
		From(t).
		Where(entsql.EQ(t.C("doc_key"), key)).
		Query()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", key, err)
	}
	defer rows.Close()

	doc := make(Document)
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("scan document %q: %w", key, err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", key, path, err)
		}
		doc[path] = v
	}
	return doc, rows.Err()
}

func upsertPath(ctx context.Context, q querier, key, path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s.%s: %w", key, path, err)
	}
	query, args := builder().Insert(tableDocuments).
		Columns("doc_key", "path", "value", "updated_at").
		Values(key, path, string(raw), time.Now()).
		OnConflict(entsql.ConflictColumns("doc_key", "path"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write %s.%s: %w", key, path, err)
	}
	return nil
}

func deletePath(ctx context.Context, q querier, key, path string) error {
	query, args := builder().Delete(tableDocuments).
		Where(entsql.And(entsql.EQ("doc_key", key), entsql.EQ("path", path))).
		Query()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s.%s: %w", key, path, err)
	}
	return nil
}

func (s *sqliteDocuments) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *sqliteDocuments) Patch(ctx context.Context, key string, fields Document) error {
	if len(fields) == 0 {
		return nil
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for path, v := range fields {
			if v == nil {
				if err := deletePath(ctx, tx, key, path); err != nil {
					return err
				}
				continue
			}
			if err := upsertPath(ctx, tx, key, path, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, key)
	return nil
}

func (s *sqliteDocuments) Increment(ctx context.Context, key, path string, delta int64) (int64, error) {
	var next int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		t := entsql.Table(tableDocuments)
		query, args := builder().Select(t.C("value")).
			From(t).
			Where(entsql.And(entsql.EQ(t.C("doc_key"), key), entsql.EQ(t.C("path"), path))).
			Query()

		var raw string
		err := tx.QueryRowContext(ctx, query, args...).Scan(&raw)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("read %s.%s: %w", key, path, err)
		default:
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return fmt.Errorf("decode %s.%s: %w", key, path, err)
			}
			next, _ = toInt64(v)
		}
		next += delta
		return upsertPath(ctx, tx, key, path, next)
	})
	if err != nil {
		return 0, err
	}
	s.notify(ctx, key)
	return next, nil
}

func (s *sqliteDocuments) Delete(ctx context.Context, key string) error {
	query, args := builder().Delete(tableDocuments).Where(entsql.EQ("doc_key", key)).Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete document %q: %w", key, err)
	}
	s.hub.publish(key, Document{})
	return nil
}

func (s *sqliteDocuments) Subscribe(ctx context.Context, key string) (<-chan Document, error) {
	return s.hub.subscribe(ctx, key)
}

func (s *sqliteDocuments) Top(ctx context.Context, path string, limit int) ([]Standing, error) {
	t := entsql.Table(tableDocuments)
	query, args := builder().Select(t.C("doc_key"), t.C("value")).
		From(t).
		Where(entsql.EQ(t.C("path"), path)).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rank by %s: %w", path, err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			continue
		}
		if n, ok := toInt64(v); ok {
			out = append(out, Standing{Key: key, Value: n})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rank(out, limit), nil
}

// Close releases subscribers. The database itself is owned by Store.
func (s *sqliteDocuments) Close() error {
	s.hub.closeAll()
	return nil
}

func (s *sqliteDocuments) notify(ctx context.Context, key string) {
	if !s.hub.watched(key) {
		return
	}
	doc, err := readDocument(ctx, s.db, key)
	if err != nil {
		return
	}
	s.hub.publish(key, doc)
}
