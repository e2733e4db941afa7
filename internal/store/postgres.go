package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgChannel = "ladder_documents"

const pgSchema = `CREATE TABLE IF NOT EXISTS ladder_documents (
	doc_key    TEXT PRIMARY KEY,
	body       JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresDocuments stores each document as one flat JSONB object.
// Writes are merge patches and change notices go out over LISTEN/NOTIFY.
type PostgresDocuments struct {
	pool *pgxpool.Pool

	once sync.Once
	done chan struct{}
}

// ParsePostgresURL validates a PostgreSQL connection URL.
func ParsePostgresURL(url string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	return cfg, nil
}

// NewPostgresDocuments connects, verifies the connection and creates the
// documents table when missing.
func NewPostgresDocuments(ctx context.Context, url string, maxConns, minConns int) (*PostgresDocuments, error) {
	cfg, err := ParsePostgresURL(url)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = int32(maxConns)
	cfg.MinConns = int32(minConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &PostgresDocuments{pool: pool, done: make(chan struct{})}, nil
}

func (p *PostgresDocuments) Get(ctx context.Context, key string) (Document, error) {
	var body map[string]any
	err := p.pool.QueryRow(ctx, `SELECT body FROM ladder_documents WHERE doc_key = $1`, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", key, err)
	}
	return Document(body), nil
}

func (p *PostgresDocuments) Patch(ctx context.Context, key string, fields Document) error {
	if len(fields) == 0 {
		return nil
	}

	set := make(map[string]any, len(fields))
	removed := []string{}
	for path, v := range fields {
		if v == nil {
			removed = append(removed, path)
			continue
		}
		set[path] = v
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO ladder_documents (doc_key, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (doc_key) DO UPDATE
		SET body = (ladder_documents.body || EXCLUDED.body) - $3::text[],
		    updated_at = now()`,
		key, set, removed)
	if err != nil {
		return fmt.Errorf("patch document %q: %w", key, err)
	}
	p.notify(ctx, key)
	return nil
}

func (p *PostgresDocuments) Increment(ctx context.Context, key, path string, delta int64) (int64, error) {
	var next int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO ladder_documents (doc_key, body, updated_at)
		VALUES ($1, jsonb_build_object($2::text, $3::bigint), now())
		ON CONFLICT (doc_key) DO UPDATE
		SET body = ladder_documents.body || jsonb_build_object(
		        $2::text,
		        (COALESCE((ladder_documents.body->>$2::text)::numeric, 0) + $3::bigint)::bigint),
		    updated_at = now()
		RETURNING (body->>$2::text)::bigint`,
		key, path, delta).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("increment %s.%s: %w", key, path, err)
	}
	p.notify(ctx, key)
	return next, nil
}

func (p *PostgresDocuments) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM ladder_documents WHERE doc_key = $1`, key); err != nil {
		return fmt.Errorf("delete document %q: %w", key, err)
	}
	p.notify(ctx, key)
	return nil
}

// notify is best effort; a missed notice only delays a subscriber.
func (p *PostgresDocuments) notify(ctx context.Context, key string) {
	_, _ = p.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, pgChannel, key)
}

func (p *PostgresDocuments) Subscribe(ctx context.Context, key string) (<-chan Document, error) {
	select {
	case <-p.done:
		return nil, errors.New("document store closed")
	default:
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-p.done:
			cancel()
		case <-listenCtx.Done():
		}
	}()

	out := make(chan Document, 1)
	go func() {
		defer close(out)
		defer cancel()
		defer func() {
			if _, err := conn.Exec(context.Background(), "UNLISTEN *"); err != nil {
				conn.Hijack().Close(context.Background())
				return
			}
			conn.Release()
		}()

		for {
			n, err := conn.Conn().WaitForNotification(listenCtx)
			if err != nil {
				return
			}
			if n.Payload != key {
				continue
			}
			doc, err := p.Get(listenCtx, key)
			if errors.Is(err, ErrNotFound) {
				doc = Document{}
			} else if err != nil {
				continue
			}
			select {
			case <-out:
			default:
			}
			out <- doc
		}
	}()
	return out, nil
}

func (p *PostgresDocuments) Top(ctx context.Context, path string, limit int) ([]Standing, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := p.pool.Query(ctx, `
		SELECT doc_key, (body->>$1::text)::numeric::bigint
		FROM ladder_documents
		WHERE jsonb_typeof(body->$1::text) = 'number'
		ORDER BY 2 DESC, doc_key
		LIMIT $2`, path, lim)
	if err != nil {
		return nil, fmt.Errorf("rank by %s: %w", path, err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close stops subscribers and closes the pool.
func (p *PostgresDocuments) Close() error {
	p.once.Do(func() { close(p.done) })
	p.pool.Close()
	return nil
}

// HealthCheck verifies the database connection is alive.
func (p *PostgresDocuments) HealthCheck(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
