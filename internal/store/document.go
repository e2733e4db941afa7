package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
)

// ErrNotFound is returned when a document or record does not exist.
var ErrNotFound = errors.New("not found")

// Document is a learner record flattened to dotted paths, for example
// "submodules.basics.intro.completed". Values are JSON-compatible scalars.
type Document map[string]any

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// Int reads a numeric path. Missing or non-numeric values read as zero.
func (d Document) Int(path string) int64 {
	n, _ := toInt64(d[path])
	return n
}

// Standing is one row of a ranking over a numeric document field.
type Standing struct {
	Key   string
	Value int64
}

// DocumentStore persists learner documents with merge-patch writes.
type DocumentStore interface {
	// Get returns the document at key, or ErrNotFound when none exists.
	Get(ctx context.Context, key string) (Document, error)
	// Patch merges fields into the document, creating it if needed.
	// A nil value removes the path.
	Patch(ctx context.Context, key string, fields Document) error
	// Increment atomically adds delta to a numeric path and returns the
	// new value.
	Increment(ctx context.Context, key, path string, delta int64) (int64, error)
	// Delete removes the whole document.
	Delete(ctx context.Context, key string) error
	// Subscribe streams the document after each change until ctx is done
	// or the store is closed. Slow readers only see the latest snapshot.
	Subscribe(ctx context.Context, key string) (<-chan Document, error)
	// Top ranks documents by a numeric path, highest first.
	Top(ctx context.Context, path string, limit int) ([]Standing, error)
	Close() error
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	case string:
		var f float64
		if _, err := fmt.Sscan(n, &f); err != nil {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

func rank(standings []Standing, limit int) []Standing {
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Value != standings[j].Value {
			return standings[i].Value > standings[j].Value
		}
		return standings[i].Key < standings[j].Key
	})
	if limit > 0 && len(standings) > limit {
		standings = standings[:limit]
	}
	return standings
}

// hub fans document snapshots out to in-process subscribers.
type hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan Document]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan Document]struct{})}
}

func (h *hub) subscribe(ctx context.Context, key string) (<-chan Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errors.New("document store closed")
	}

	ch := make(chan Document, 1)
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan Document]struct{})
	}
	h.subs[key][ch] = struct{}{}

	go func() {
		<-ctx.Done()
		h.unsubscribe(key, ch)
	}()
	return ch, nil
}

func (h *hub) unsubscribe(key string, ch chan Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[key][ch]; !ok {
		return
	}
	delete(h.subs[key], ch)
	if len(h.subs[key]) == 0 {
		delete(h.subs, key)
	}
	close(ch)
}

func (h *hub) watched(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key]) > 0
}

// publish never blocks: a full channel has its stale snapshot replaced.
func (h *hub) publish(key string, doc Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[key] {
		snapshot := doc.Clone()
		select {
		case ch <- snapshot:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for key, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, key)
	}
}
