package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDocuments keeps each document in a Redis (or Dragonfly) hash.
// Top-level numeric paths such as "xp" are mirrored into sorted sets so
// they can be ranked, and every write publishes on a per-document channel.
type RedisDocuments struct {
	client *redis.Client
	prefix string

	once sync.Once
	done chan struct{}
}

// ParseRedisURL validates a Redis connection URL.
func ParseRedisURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return opts, nil
}

// NewRedisDocuments connects to Redis and verifies the connection.
func NewRedisDocuments(ctx context.Context, url string) (*RedisDocuments, error) {
	opts, err := ParseRedisURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &RedisDocuments{client: client, prefix: "ladder", done: make(chan struct{})}, nil
}

func (r *RedisDocuments) docKey(key string) string   { return r.prefix + ":doc:" + key }
func (r *RedisDocuments) channel(key string) string  { return r.prefix + ":doc:" + key + ":changes" }
func (r *RedisDocuments) rankKey(path string) string { return r.prefix + ":rank:" + path }

// ranked reports whether a path is mirrored into a sorted set.
func ranked(path string) bool { return !strings.Contains(path, ".") }

func (r *RedisDocuments) Get(ctx context.Context, key string) (Document, error) {
	raw, err := r.client.HGetAll(ctx, r.docKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", key, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("document %q: %w", key, ErrNotFound)
	}

	doc := make(Document, len(raw))
	for path, s := range raw {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", key, path, err)
		}
		doc[path] = v
	}
	return doc, nil
}

func (r *RedisDocuments) Patch(ctx context.Context, key string, fields Document) error {
	if len(fields) == 0 {
		return nil
	}

	set := make(map[string]any, len(fields))
	var removed []string
	for path, v := range fields {
		if v == nil {
			removed = append(removed, path)
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s.%s: %w", key, path, err)
		}
		set[path] = string(raw)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(set) > 0 {
			pipe.HSet(ctx, r.docKey(key), set)
		}
		if len(removed) > 0 {
			pipe.HDel(ctx, r.docKey(key), removed...)
		}
		for path, v := range fields {
			if !ranked(path) {
				continue
			}
			if v == nil {
				pipe.ZRem(ctx, r.rankKey(path), key)
				continue
			}
			if n, ok := toInt64(v); ok {
				pipe.ZAdd(ctx, r.rankKey(path), redis.Z{Score: float64(n), Member: key})
			}
		}
		pipe.Publish(ctx, r.channel(key), "patch")
		return nil
	})
	if err != nil {
		return fmt.Errorf("patch document %q: %w", key, err)
	}
	return nil
}

func (r *RedisDocuments) Increment(ctx context.Context, key, path string, delta int64) (int64, error) {
	next, err := r.client.HIncrBy(ctx, r.docKey(key), path, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("increment %s.%s: %w", key, path, err)
	}

	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		if ranked(path) {
			pipe.ZAdd(ctx, r.rankKey(path), redis.Z{Score: float64(next), Member: key})
		}
		pipe.Publish(ctx, r.channel(key), "increment")
		return nil
	})
	if err != nil {
		return next, fmt.Errorf("rank %s.%s: %w", key, path, err)
	}
	return next, nil
}

func (r *RedisDocuments) Delete(ctx context.Context, key string) error {
	paths, err := r.client.HKeys(ctx, r.docKey(key)).Result()
	if err != nil {
		return fmt.Errorf("delete document %q: %w", key, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.docKey(key))
		for _, p := range paths {
			if ranked(p) {
				pipe.ZRem(ctx, r.rankKey(p), key)
			}
		}
		pipe.Publish(ctx, r.channel(key), "delete")
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete document %q: %w", key, err)
	}
	return nil
}

func (r *RedisDocuments) Subscribe(ctx context.Context, key string) (<-chan Document, error) {
	select {
	case <-r.done:
		return nil, errors.New("document store closed")
	default:
	}

	sub := r.client.Subscribe(ctx, r.channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %q: %w", key, err)
	}

	out := make(chan Document, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				doc, err := r.Get(ctx, key)
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
		}
	}()
	return out, nil
}

func (r *RedisDocuments) Top(ctx context.Context, path string, limit int) ([]Standing, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	zs, err := r.client.ZRevRangeWithScores(ctx, r.rankKey(path), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("rank by %s: %w", path, err)
	}

	out := make([]Standing, 0, len(zs))
	for _, z := range zs {
		out = append(out, Standing{Key: fmt.Sprint(z.Member), Value: int64(z.Score)})
	}
	return rank(out, limit), nil
}

// Close stops subscribers and shuts down the client.
func (r *RedisDocuments) Close() error {
	r.once.Do(func() { close(r.done) })
	return r.client.Close()
}

// HealthCheck verifies the connection is alive.
func (r *RedisDocuments) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
